// Package messagesvc implements the central message pipeline (spec §4.1,
// §4.5, §4.6, §4.7, §4.8): create, read composition, edit/delete,
// reactions, and read receipts. Grounded on the teacher's topic.go
// message handling (t.lastId counters, replyGetData shaping) adapted to
// the spec's room/role model instead of tinode's subscription bitmask.
package messagesvc

import "github.com/backboneproto/corechat/internal/domain"

// CreateInput is everything spec §4.1 accepts on message creation.
type CreateInput struct {
	SenderID          int64
	ChatRoomID        int64
	Content           string
	ContentCiphertext *string
	EncryptedKeys     map[int64]string
	ClientMessageID   *string
	ExpireSeconds     *int
	Attachments       []AttachmentInput
}

// AttachmentInput is an already-uploaded or inline attachment reference
// supplied alongside message creation.
type AttachmentInput struct {
	Kind        domain.AttachmentKind
	URL         string
	MimeType    string
	Width       *int
	Height      *int
	DurationSec *float64
	Caption     *string
	ThumbURL    *string
}

// Item is the fully composed, read-shaped message returned to a caller
// (spec §4.5 step 5): either a live message or a tombstone.
type Item struct {
	ID                int64                   `json:"id"`
	ChatRoomID        int64                   `json:"chatRoomId"`
	SenderID          int64                   `json:"senderId"`
	CreatedAt         string                  `json:"createdAt"`
	ExpiresAt         *string                 `json:"expiresAt,omitempty"`
	EditedAt          *string                 `json:"editedAt,omitempty"`
	DeletedForAll     bool                    `json:"deletedForAll"`
	DeletedAt         *string                 `json:"deletedAt,omitempty"`
	DeletedByID       *int64                  `json:"deletedById,omitempty"`
	RawContent        *string                 `json:"rawContent"`
	ContentCiphertext *string                 `json:"contentCiphertext"`
	EncryptedKeyForMe *string                 `json:"encryptedKeyForMe,omitempty"`
	TranslatedForMe   *string                 `json:"translatedForMe"`
	Attachments       []domain.Attachment     `json:"attachments"`
	ReadBy            []domain.ReadReceipt    `json:"readBy"`
	ReactionSummary   domain.ReactionSummary  `json:"reactionSummary"`
	MyReactions       []string                `json:"myReactions"`
}

// EditInput is spec §4.6's edit request.
type EditInput struct {
	MessageID  int64
	EditorID   int64
	NewContent string
}

// ListInput is spec §4.5's read request.
type ListInput struct {
	ChatRoomID int64
	CallerID   int64
	Limit      int
	Cursor     *int64
}

// ListResult is spec §4.5 step 7's response shape.
type ListResult struct {
	Items      []Item `json:"items"`
	NextCursor *int64 `json:"nextCursor"`
	Count      int    `json:"count"`
}
