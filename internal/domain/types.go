// Package domain holds the wire- and storage-level shapes shared by every
// component of the messaging backbone: users, rooms, participants,
// messages and their satellites (attachments, keys, reactions, reads,
// deletions) and the smaller lookup records (thread clears, scheduled
// messages, invite codes, uploads).
package domain

import "time"

// Role is a user's global (not per-room) privilege level.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Plan gates retention length and scheduled-message access.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

// ParticipantRole is a user's privilege within a single room.
type ParticipantRole string

const (
	RoleOwner     ParticipantRole = "OWNER"
	RoleAdminRoom ParticipantRole = "ADMIN"
	RoleModerator ParticipantRole = "MODERATOR"
	RoleMember    ParticipantRole = "MEMBER"
)

// roleRank orders roles for "only a higher-ranked actor may change this" checks.
var roleRank = map[ParticipantRole]int{
	RoleMember:    0,
	RoleModerator: 1,
	RoleAdminRoom: 2,
	RoleOwner:     3,
}

// Outranks reports whether r can act on target (r must be strictly higher,
// except OWNER acting on itself is never permitted by this check alone).
func (r ParticipantRole) Outranks(target ParticipantRole) bool {
	return roleRank[r] > roleRank[target]
}

func (r ParticipantRole) AtLeast(min ParticipantRole) bool {
	return roleRank[r] >= roleRank[min]
}

// AutoTranslateMode governs §4.1 step 6 translation fan-out per room.
type AutoTranslateMode string

const (
	AutoTranslateOff    AutoTranslateMode = "off"
	AutoTranslateAlways AutoTranslateMode = "always"
	AutoTranslateTagged AutoTranslateMode = "tagged"
)

// AttachmentKind enumerates the §3 Attachment.kind values.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "IMAGE"
	AttachmentVideo AttachmentKind = "VIDEO"
	AttachmentAudio AttachmentKind = "AUDIO"
	AttachmentFile  AttachmentKind = "FILE"
)

// StorageDriver enumerates the §3 Upload.driver values.
type StorageDriver string

const (
	StorageLocal StorageDriver = "local"
	StorageS3    StorageDriver = "s3"
)

// User is §3 User. db tags let internal/store/sql scan rows directly via
// sqlx.StructScan instead of a parallel set of row types.
type User struct {
	ID                   int64  `db:"id"`
	Username             string `db:"username"`
	Email                string `db:"email"`
	PasswordHash         string `db:"password_hash"`
	Role                 Role   `db:"role"`
	Plan                 Plan   `db:"plan"`
	PublicKey            []byte `db:"public_key"`
	PreferredLanguage    string `db:"preferred_language"`
	AllowExplicitContent bool   `db:"allow_explicit_content"`
	StrictE2EE           bool   `db:"strict_e2ee"`
	ShowReadReceipts     bool   `db:"show_read_receipts"`
	AutoDeleteSeconds    int    `db:"auto_delete_seconds"`
	TwoFactorEnabled     bool   `db:"two_factor_enabled"`
	TOTPSecretEnc        []byte `db:"totp_secret_enc"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// ChatRoom is §3 ChatRoom.
type ChatRoom struct {
	ID                int64             `db:"id"`
	Name              *string           `db:"name"`
	IsGroup           bool              `db:"is_group"`
	OwnerID           *int64            `db:"owner_id"`
	AutoTranslateMode AutoTranslateMode `db:"auto_translate_mode"`
	CreatedAt         time.Time         `db:"created_at"`
}

// Participant is §3 Participant, keyed on (ChatRoomID, UserID).
type Participant struct {
	ChatRoomID int64           `db:"chat_room_id"`
	UserID     int64           `db:"user_id"`
	Role       ParticipantRole `db:"role"`
	ArchivedAt *time.Time      `db:"archived_at"`
}

// ThreadClear is §3 ThreadClear.
type ThreadClear struct {
	UserID     int64     `db:"user_id"`
	ChatRoomID int64     `db:"chat_room_id"`
	ClearedAt  time.Time `db:"cleared_at"`
}

// Message is §3 Message. Translations is tagged db:"-": it is a JSON
// column in the SQL adapter, which scans/marshals it itself rather than
// relying on sqlx.StructScan to coerce a TEXT column into a map.
type Message struct {
	ID                int64             `db:"id"`
	ChatRoomID        int64             `db:"chat_room_id"`
	SenderID          int64             `db:"sender_id"`
	ClientMessageID   *string           `db:"client_message_id"`
	RawContent        string            `db:"raw_content"`
	ContentCiphertext *string           `db:"content_ciphertext"`
	Translations      map[string]string `db:"-"`
	TranslatedFrom    *string           `db:"translated_from"`
	IsExplicit        bool              `db:"is_explicit"`
	IsAutoReply       bool              `db:"is_auto_reply"`
	CreatedAt         time.Time         `db:"created_at"`
	ExpiresAt         *time.Time        `db:"expires_at"`
	EditedAt          *time.Time        `db:"edited_at"`
	DeletedForAll     bool              `db:"deleted_for_all"`
	DeletedAt         *time.Time        `db:"deleted_at"`
	DeletedByID       *int64            `db:"deleted_by_id"`
}

// HasBody reports whether the message carries at least one of the three
// required bodies per the §3 Message invariant (attachments checked by the
// caller, since Message itself does not own the slice).
func (m *Message) HasBody(hasAttachments bool) bool {
	return m.RawContent != "" || (m.ContentCiphertext != nil && *m.ContentCiphertext != "") || hasAttachments
}

// Attachment is §3 Attachment.
type Attachment struct {
	ID          int64          `db:"id"`
	MessageID   int64          `db:"message_id"`
	Kind        AttachmentKind `db:"kind"`
	URL         string         `db:"url"`
	MimeType    string         `db:"mime_type"`
	Width       *int           `db:"width"`
	Height      *int           `db:"height"`
	DurationSec *float64       `db:"duration_sec"`
	Caption     *string        `db:"caption"`
	ThumbURL    *string        `db:"thumb_url"`
	CreatedAt   time.Time      `db:"created_at"`
}

// MessageKey is §3 MessageKey.
type MessageKey struct {
	MessageID    int64  `db:"message_id"`
	UserID       int64  `db:"user_id"`
	EncryptedKey string `db:"encrypted_key"`
}

// MessageReaction is §3 MessageReaction.
type MessageReaction struct {
	MessageID int64  `db:"message_id"`
	UserID    int64  `db:"user_id"`
	Emoji     string `db:"emoji"`
}

// MessageRead is §3 MessageRead, one row per (messageID, userID).
type MessageRead struct {
	MessageID int64     `db:"message_id"`
	UserID    int64     `db:"user_id"`
	ReadAt    time.Time `db:"read_at"`
}

// MessageDeletion is §3 MessageDeletion (delete-for-me marker).
type MessageDeletion struct {
	MessageID int64 `db:"message_id"`
	UserID    int64 `db:"user_id"`
}

// ScheduledMessage is §3 ScheduledMessage.
type ScheduledMessage struct {
	ID          int64     `db:"id"`
	ChatRoomID  int64     `db:"chat_room_id"`
	SenderID    int64     `db:"sender_id"`
	Content     string    `db:"content"`
	ScheduledAt time.Time `db:"scheduled_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// InviteCode is §3 Invite code.
type InviteCode struct {
	Code       string     `db:"code"`
	ChatRoomID int64      `db:"chat_room_id"`
	CreatedAt  time.Time  `db:"created_at"`
	ExpiresAt  *time.Time `db:"expires_at"`
}

// Upload is §3 Upload.
type Upload struct {
	ID           string        `db:"id"`
	OwnerID      int64         `db:"owner_id"`
	Key          string        `db:"storage_key"`
	SHA256       *string       `db:"sha256"`
	OriginalName string        `db:"original_name"`
	MimeType     string        `db:"mime_type"`
	Size         int64         `db:"size"`
	Driver       StorageDriver `db:"driver"`
	CreatedAt    time.Time     `db:"created_at"`
}

// ReactionSummary maps emoji to the count of users who reacted with it.
type ReactionSummary map[string]int

// ReadReceipt is the shape surfaced on a read message item (§6.2).
type ReadReceipt struct {
	ID        int64
	Username  string
	AvatarURL string
}
