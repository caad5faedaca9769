// Package store declares the persistence boundary for the messaging core.
// It is deliberately narrow: every concrete driver (in-memory for tests,
// SQL for production) implements the same Adapter, and nothing above this
// package ever type-asserts down to a specific driver.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/backboneproto/corechat/internal/domain"
)

// ErrNotFound is returned by single-record lookups that find nothing.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a unique constraint would be violated,
// e.g. a duplicate username or a re-used clientMessageId.
var ErrConflict = errors.New("store: conflict")

// MessagePage bounds a message history query (spec §4.4 pagination).
type MessagePage struct {
	Before *int64 // exclusive upper bound on message ID, nil = most recent
	Limit  int
}

// Adapter is the full persistence surface required by the service layer.
// It is composed of smaller interfaces so individual services only need to
// depend on the slice they actually use.
type Adapter interface {
	Users
	Rooms
	Participants
	ThreadClears
	Messages
	Attachments
	MessageKeys
	Reactions
	Reads
	Deletions
	ScheduledMessages
	Invites
	Uploads
	Devices

	// Open and configure the adapter.
	Open(ctx context.Context) error
	// Close releases any underlying resources.
	Close() error
	// Ping checks the adapter is reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	UserCreate(ctx context.Context, u *domain.User) error
	UserGet(ctx context.Context, id int64) (*domain.User, error)
	UserGetByUsername(ctx context.Context, username string) (*domain.User, error)
	UserGetByEmail(ctx context.Context, email string) (*domain.User, error)
	UserUpdate(ctx context.Context, id int64, update map[string]interface{}) error
}

type Rooms interface {
	RoomCreate(ctx context.Context, r *domain.ChatRoom) error
	RoomGet(ctx context.Context, id int64) (*domain.ChatRoom, error)
	RoomUpdate(ctx context.Context, id int64, update map[string]interface{}) error
	RoomsForUser(ctx context.Context, userID int64) ([]domain.ChatRoom, error)
}

type Participants interface {
	ParticipantAdd(ctx context.Context, p *domain.Participant) error
	ParticipantGet(ctx context.Context, roomID, userID int64) (*domain.Participant, error)
	ParticipantsForRoom(ctx context.Context, roomID int64) ([]domain.Participant, error)
	ParticipantSetRole(ctx context.Context, roomID, userID int64, role domain.ParticipantRole) error
	ParticipantArchive(ctx context.Context, roomID, userID int64, at time.Time) error
	ParticipantRemove(ctx context.Context, roomID, userID int64) error
}

type ThreadClears interface {
	ThreadClearSet(ctx context.Context, userID, roomID int64, at time.Time) error
	ThreadClearGet(ctx context.Context, userID, roomID int64) (*domain.ThreadClear, error)
}

type Messages interface {
	MessageCreate(ctx context.Context, m *domain.Message) error
	MessageGet(ctx context.Context, id int64) (*domain.Message, error)
	MessageGetByClientID(ctx context.Context, roomID, senderID int64, clientMessageID string) (*domain.Message, error)
	MessagesForRoom(ctx context.Context, roomID int64, page MessagePage) ([]domain.Message, error)
	MessageUpdate(ctx context.Context, id int64, update map[string]interface{}) error
	// MessagesExpiring returns up to limit messages whose expiresAt has
	// passed and are not yet tombstoned, for the retention expire-worker.
	MessagesExpiring(ctx context.Context, before time.Time, limit int) ([]domain.Message, error)
	// MessagesOlderThan supports plan-gated retention pruning.
	MessagesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Message, error)
}

type Attachments interface {
	AttachmentCreate(ctx context.Context, a *domain.Attachment) error
	AttachmentsForMessage(ctx context.Context, messageID int64) ([]domain.Attachment, error)
}

type MessageKeys interface {
	MessageKeysPut(ctx context.Context, keys []domain.MessageKey) error
	MessageKeyGet(ctx context.Context, messageID, userID int64) (*domain.MessageKey, error)
}

type Reactions interface {
	ReactionToggle(ctx context.Context, messageID, userID int64, emoji string) (added bool, err error)
	ReactionsForMessage(ctx context.Context, messageID int64) (domain.ReactionSummary, error)
}

type Reads interface {
	ReadUpsert(ctx context.Context, messageID, userID int64, at time.Time) error
	ReadsForMessage(ctx context.Context, messageID int64) ([]domain.MessageRead, error)
}

type Deletions interface {
	DeletionAdd(ctx context.Context, messageID, userID int64) error
	DeletionExists(ctx context.Context, messageID, userID int64) (bool, error)
}

type ScheduledMessages interface {
	ScheduledCreate(ctx context.Context, sm *domain.ScheduledMessage) error
	ScheduledDue(ctx context.Context, before time.Time, limit int) ([]domain.ScheduledMessage, error)
	ScheduledDelete(ctx context.Context, id int64) error
}

type Invites interface {
	InviteCreate(ctx context.Context, inv *domain.InviteCode) error
	InviteGet(ctx context.Context, code string) (*domain.InviteCode, error)
	InviteDelete(ctx context.Context, code string) error
}

type Uploads interface {
	UploadCreate(ctx context.Context, u *domain.Upload) error
	UploadGet(ctx context.Context, id string) (*domain.Upload, error)
}

// Device is a per-user device registration used to target push payloads,
// grounded on the teacher's store.Devices.Update calls.
type Device struct {
	UserID   int64     `db:"user_id"`
	DeviceID string    `db:"device_id"`
	Platform string    `db:"platform"`
	Lang     string    `db:"lang"`
	LastSeen time.Time `db:"last_seen"`
}

type Devices interface {
	DeviceUpsert(ctx context.Context, d *Device) error
	DevicesForUsers(ctx context.Context, userIDs []int64) ([]Device, error)
	DeviceDelete(ctx context.Context, userID int64, deviceID string) error
}
