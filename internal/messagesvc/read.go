package messagesvc

import (
	"context"
	"time"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/store"
)

const defaultListLimit = 50
const maxListLimit = 200

// List implements spec §4.5: visibility composition on read. The cutoff for
// a caller is the later of their archive time and their thread-clear time;
// messages at or before the cutoff, or past their own expiry, never surface.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	participant, err := s.store.ParticipantGet(ctx, in.ChatRoomID, in.CallerID)
	if err != nil {
		return nil, apperror.Forbidden("not a member of this room")
	}

	cutoff := participant.ArchivedAt
	if clear, err := s.store.ThreadClearGet(ctx, in.CallerID, in.ChatRoomID); err == nil {
		if cutoff == nil || clear.ClearedAt.After(*cutoff) {
			cutoff = &clear.ClearedAt
		}
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	page := store.MessagePage{Before: in.Cursor, Limit: limit + 1}
	rows, err := s.store.MessagesForRoom(ctx, in.ChatRoomID, page)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := time.Now().UTC()
	items := make([]Item, 0, len(rows))
	var nextCursor *int64
	for i := range rows {
		m := rows[i]
		if cutoff != nil && !m.CreatedAt.After(*cutoff) {
			continue
		}
		if m.ExpiresAt != nil && !m.ExpiresAt.After(now) {
			continue
		}
		if deleted, _ := s.store.DeletionExists(ctx, m.ID, in.CallerID); deleted {
			continue
		}

		if len(items) == limit {
			nextCursor = &items[len(items)-1].ID
			break
		}

		item, err := s.compose(ctx, &m, in.CallerID)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return &ListResult{Items: items, NextCursor: nextCursor, Count: len(items)}, nil
}

// compose shapes a stored Message into the caller-specific Item per §4.5
// step 5: tombstones for deleted-for-all messages, otherwise the full body
// plus the caller's own key/translation/reaction/read-receipt view.
func (s *Service) compose(ctx context.Context, m *domain.Message, callerID int64) (*Item, error) {
	item := &Item{
		ID:            m.ID,
		ChatRoomID:    m.ChatRoomID,
		SenderID:      m.SenderID,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339Nano),
		DeletedForAll: m.DeletedForAll,
	}
	if m.ExpiresAt != nil {
		s := m.ExpiresAt.Format(time.RFC3339Nano)
		item.ExpiresAt = &s
	}
	if m.EditedAt != nil {
		s := m.EditedAt.Format(time.RFC3339Nano)
		item.EditedAt = &s
	}
	if m.DeletedAt != nil {
		s := m.DeletedAt.Format(time.RFC3339Nano)
		item.DeletedAt = &s
	}
	item.DeletedByID = m.DeletedByID

	if m.DeletedForAll {
		// Tombstone shape: no body, no attachments, no keys.
		return item, nil
	}

	// rawContent is withheld when the message carries ciphertext and the
	// caller is neither the sender nor a global admin (§4.5 step 5).
	withholdRaw := false
	if m.ContentCiphertext != nil && *m.ContentCiphertext != "" && callerID != m.SenderID {
		caller, err := s.store.UserGet(ctx, callerID)
		withholdRaw = err != nil || caller.Role != domain.RoleAdmin
	}
	if m.RawContent != "" && !withholdRaw {
		content := m.RawContent
		item.RawContent = &content
	}
	item.ContentCiphertext = m.ContentCiphertext

	if key, err := s.store.MessageKeyGet(ctx, m.ID, callerID); err == nil {
		item.EncryptedKeyForMe = &key.EncryptedKey
	}

	if caller, err := s.store.UserGet(ctx, callerID); err == nil {
		if t, ok := m.Translations[caller.PreferredLanguage]; ok {
			item.TranslatedForMe = &t
		}
	}

	atts, err := s.store.AttachmentsForMessage(ctx, m.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	item.Attachments = atts

	reads, err := s.store.ReadsForMessage(ctx, m.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	receipts := make([]domain.ReadReceipt, 0, len(reads))
	for _, r := range reads {
		if u, err := s.store.UserGet(ctx, r.UserID); err == nil {
			receipts = append(receipts, domain.ReadReceipt{ID: u.ID, Username: u.Username})
		}
	}
	item.ReadBy = receipts

	summary, err := s.store.ReactionsForMessage(ctx, m.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	item.ReactionSummary = summary

	return item, nil
}
