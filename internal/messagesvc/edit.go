package messagesvc

import (
	"context"
	"time"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/realtime"
)

// DeleteScope selects how far a delete reaches (spec §4.6).
type DeleteScope string

const (
	DeleteScopeMe  DeleteScope = "me"
	DeleteScopeAll DeleteScope = "all"
)

// Edit implements spec §4.6: only the sender, only within the configured
// edit window, and only before any other participant has read it.
func (s *Service) Edit(ctx context.Context, in EditInput) (*Item, error) {
	msg, err := s.store.MessageGet(ctx, in.MessageID)
	if err != nil {
		return nil, apperror.NotFound("message not found")
	}
	if msg.SenderID != in.EditorID {
		return nil, apperror.Forbidden("only the sender may edit this message")
	}
	if msg.DeletedForAll {
		return nil, apperror.Conflict("message has been deleted")
	}
	if msg.ContentCiphertext != nil {
		return nil, apperror.Validation("cannot edit an end-to-end encrypted message")
	}
	if time.Since(msg.CreatedAt) > s.editWindow {
		return nil, apperror.Conflict("edit window has expired")
	}

	reads, err := s.store.ReadsForMessage(ctx, msg.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	for _, r := range reads {
		if r.UserID != msg.SenderID {
			return nil, apperror.Conflict("message has already been read")
		}
	}

	content := in.NewContent
	if s.profanity.IsExplicit(content) {
		content = s.profanity.Mask(content)
	}

	now := time.Now().UTC()
	update := map[string]interface{}{
		"rawContent": content,
		"editedAt":   now,
	}
	if err := s.store.MessageUpdate(ctx, msg.ID, update); err != nil {
		return nil, apperror.Internal(err)
	}
	msg.RawContent = content
	msg.EditedAt = &now

	item, err := s.compose(ctx, msg, in.EditorID)
	if err != nil {
		return nil, err
	}
	s.emitUpsert(msg.ChatRoomID, item)
	return item, nil
}

// Delete implements spec §4.6's two scopes: delete-for-me adds a
// per-caller tombstone marker, delete-for-all replaces the body and marks
// the message deleted for every participant.
func (s *Service) Delete(ctx context.Context, messageID, callerID int64, scope DeleteScope) (*Item, error) {
	msg, err := s.store.MessageGet(ctx, messageID)
	if err != nil {
		return nil, apperror.NotFound("message not found")
	}

	if scope == DeleteScopeMe {
		if err := s.store.DeletionAdd(ctx, messageID, callerID); err != nil {
			return nil, apperror.Internal(err)
		}
		return nil, nil
	}

	if msg.SenderID != callerID {
		caller, err := s.store.UserGet(ctx, callerID)
		if err != nil || caller.Role != domain.RoleAdmin {
			return nil, apperror.Forbidden("only the sender or a global admin may delete for everyone")
		}
	}

	now := time.Now().UTC()
	update := map[string]interface{}{
		"deletedForAll":     true,
		"deletedAt":         now,
		"deletedById":       callerID,
		"rawContent":        "",
		"contentCiphertext": "",
		"translations":      map[string]string{},
	}
	if err := s.store.MessageUpdate(ctx, messageID, update); err != nil {
		return nil, apperror.Internal(err)
	}
	emptyCiphertext := ""
	msg.DeletedForAll = true
	msg.DeletedAt = &now
	msg.DeletedByID = &callerID
	msg.RawContent = ""
	msg.ContentCiphertext = &emptyCiphertext
	msg.Translations = map[string]string{}

	item, err := s.compose(ctx, msg, callerID)
	if err != nil {
		return nil, err
	}
	s.emitUpsert(msg.ChatRoomID, item)
	return item, nil
}

// React implements spec §4.7: toggle on (messageId, userId, emoji).
// Tombstones refuse with op=noop rather than an error, since a reaction on
// a deleted message is neither added nor removed.
func (s *Service) React(ctx context.Context, messageID, userID int64, emoji string) error {
	msg, err := s.store.MessageGet(ctx, messageID)
	if err != nil {
		return apperror.NotFound("message not found")
	}
	if _, err := s.store.ParticipantGet(ctx, msg.ChatRoomID, userID); err != nil {
		return apperror.Forbidden("not a member of this room")
	}

	if msg.DeletedForAll {
		s.emitReaction(msg.ChatRoomID, messageID, emoji, "noop", userID, 0)
		return nil
	}

	added, err := s.store.ReactionToggle(ctx, messageID, userID, emoji)
	if err != nil {
		return apperror.Internal(err)
	}

	summary, err := s.store.ReactionsForMessage(ctx, messageID)
	if err != nil {
		return apperror.Internal(err)
	}

	op := "removed"
	if added {
		op = "added"
	}
	s.emitReaction(msg.ChatRoomID, messageID, emoji, op, userID, summary[emoji])
	return nil
}

func (s *Service) emitReaction(roomID, messageID int64, emoji, op string, userID int64, count int) {
	ev, err := realtime.NewEvent(realtime.EventReactionUpdated, roomID, map[string]interface{}{
		"messageId": messageID,
		"emoji":     emoji,
		"op":        op,
		"user":      map[string]interface{}{"id": userID},
		"count":     count,
	})
	if err != nil {
		return
	}
	s.hub.Publish(ev)
}

// MarkRead implements spec §4.8's single-message read receipt.
func (s *Service) MarkRead(ctx context.Context, messageID, userID int64) error {
	msg, err := s.store.MessageGet(ctx, messageID)
	if err != nil {
		return apperror.NotFound("message not found")
	}
	if _, err := s.store.ParticipantGet(ctx, msg.ChatRoomID, userID); err != nil {
		return apperror.Forbidden("not a member of this room")
	}
	now := time.Now().UTC()
	if err := s.store.ReadUpsert(ctx, messageID, userID, now); err != nil {
		return apperror.Internal(err)
	}

	s.emitRead(ctx, msg.ChatRoomID, userID, now, &messageID, nil)
	return nil
}

func (s *Service) emitRead(ctx context.Context, roomID, readerID int64, readAt time.Time, messageID *int64, messageIDs []int64) {
	reader, err := s.store.UserGet(ctx, readerID)
	readerPayload := map[string]interface{}{"id": readerID}
	if err == nil {
		readerPayload["username"] = reader.Username
	}
	payload := map[string]interface{}{
		"reader":     readerPayload,
		"readAt":     readAt.Format(time.RFC3339Nano),
		"chatRoomId": roomID,
	}
	if messageID != nil {
		payload["messageId"] = *messageID
	}
	if messageIDs != nil {
		payload["messageIds"] = messageIDs
	}
	ev, err := realtime.NewEvent(realtime.EventMessageRead, roomID, payload)
	if err != nil {
		return
	}
	s.hub.Publish(ev)
}

// MarkReadBulk implements spec §4.8's bulk read receipt: accepts a list of
// message ids, filters to rooms the caller is a member of, upserts all,
// and emits one grouped message_read per room.
func (s *Service) MarkReadBulk(ctx context.Context, userID int64, messageIDs []int64) error {
	byRoom := make(map[int64][]int64)
	membership := make(map[int64]bool)

	for _, id := range messageIDs {
		msg, err := s.store.MessageGet(ctx, id)
		if err != nil {
			continue
		}
		allowed, checked := membership[msg.ChatRoomID]
		if !checked {
			_, perr := s.store.ParticipantGet(ctx, msg.ChatRoomID, userID)
			allowed = perr == nil
			membership[msg.ChatRoomID] = allowed
		}
		if !allowed {
			continue
		}
		byRoom[msg.ChatRoomID] = append(byRoom[msg.ChatRoomID], id)
	}

	now := time.Now().UTC()
	for roomID, ids := range byRoom {
		for _, id := range ids {
			if err := s.store.ReadUpsert(ctx, id, userID, now); err != nil {
				return apperror.Internal(err)
			}
		}
		s.emitRead(ctx, roomID, userID, now, nil, ids)
	}
	return nil
}
