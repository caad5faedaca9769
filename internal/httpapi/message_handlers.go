package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
	"github.com/backboneproto/corechat/internal/messagesvc"
)

func pathInt64(c *gin.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperror.Validation(name + " must be numeric")
	}
	return v, nil
}

func (a *App) handleCreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	keys := make(map[int64]string, len(req.EncryptedKeys))
	for k, v := range req.EncryptedKeys {
		uid, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			writeError(c, apperror.Validation("encryptedKeys keys must be numeric user ids"))
			return
		}
		keys[uid] = v
	}
	attachments := make([]messagesvc.AttachmentInput, 0, len(req.Attachments))
	for _, at := range req.Attachments {
		attachments = append(attachments, messagesvc.AttachmentInput{
			Kind:        domain.AttachmentKind(at.Kind),
			URL:         at.URL,
			MimeType:    at.MimeType,
			Width:       at.Width,
			Height:      at.Height,
			DurationSec: at.DurationSec,
			Caption:     at.Caption,
			ThumbURL:    at.ThumbURL,
		})
	}

	item, err := a.Messages.Create(c.Request.Context(), messagesvc.CreateInput{
		SenderID:          currentUserID(c),
		ChatRoomID:        req.ChatRoomID,
		Content:           req.Content,
		ContentCiphertext: req.ContentCiphertext,
		EncryptedKeys:     keys,
		ClientMessageID:   req.ClientMessageID,
		ExpireSeconds:     req.ExpireSeconds,
		Attachments:       attachments,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (a *App) handleListMessages(c *gin.Context) {
	roomID, err := pathInt64(c, "chatRoomId")
	if err != nil {
		writeError(c, err)
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, convErr := strconv.Atoi(raw); convErr == nil && v > 0 {
			limit = v
		}
	}
	var cursor *int64
	if raw := c.Query("before"); raw != "" {
		if v, convErr := strconv.ParseInt(raw, 10, 64); convErr == nil {
			cursor = &v
		}
	}
	res, err := a.Messages.List(c.Request.Context(), messagesvc.ListInput{
		ChatRoomID: roomID,
		CallerID:   currentUserID(c),
		Limit:      limit,
		Cursor:     cursor,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *App) handleEditMessage(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	item, err := a.Messages.Edit(c.Request.Context(), messagesvc.EditInput{
		MessageID:  id,
		EditorID:   currentUserID(c),
		NewContent: req.Content,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *App) handleDeleteMessage(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	scope := messagesvc.DeleteScope(c.DefaultQuery("scope", "me"))
	item, err := a.Messages.Delete(c.Request.Context(), id, currentUserID(c), scope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (a *App) handleAddReaction(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	if err := a.Messages.React(c.Request.Context(), id, currentUserID(c), req.Emoji); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleRemoveReaction(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	emoji := c.Param("emoji")
	// React toggles, so removing is the same call with the same emoji.
	if err := a.Messages.React(c.Request.Context(), id, currentUserID(c), emoji); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleMarkRead(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.Messages.MarkRead(c.Request.Context(), id, currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleMarkReadBulk(c *gin.Context) {
	var req markReadBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	if err := a.Messages.MarkReadBulk(c.Request.Context(), currentUserID(c), req.MessageIDs); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleClearRoom implements the caller-scoped "clear" from spec §4.2: the
// caller's own view of the room is cut at the current time, nothing is
// deleted for other participants.
func (a *App) handleClearRoom(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.Rooms.Clear(c.Request.Context(), currentUserID(c), roomID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleClearAllRoom clears every participant's view of the room at once.
// Restricted to the room owner or a global admin, since it affects state
// shared by everyone in the room rather than just the caller's own view.
func (a *App) handleClearAllRoom(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	callerID := currentUserID(c)
	room, err := a.Store.RoomGet(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, apperror.NotFound("room not found"))
		return
	}
	caller, err := a.Store.UserGet(c.Request.Context(), callerID)
	isOwner := room.OwnerID != nil && *room.OwnerID == callerID
	if !isOwner && (err != nil || caller.Role != domain.RoleAdmin) {
		writeError(c, apperror.Forbidden("only the room owner or an admin can clear the room for everyone"))
		return
	}
	participants, err := a.Store.ParticipantsForRoom(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, apperror.Internal(err))
		return
	}
	now := time.Now().UTC()
	for _, p := range participants {
		if err := a.Store.ThreadClearSet(c.Request.Context(), p.UserID, roomID, now); err != nil {
			writeError(c, apperror.Internal(err))
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// handleScheduleMessage records a message to be sent at a future time.
// Delivery itself is out of this gateway's scope — a dispatcher job reads
// store.ScheduledMessages.ScheduledDue and calls messagesvc.Create at the
// scheduled time.
func (a *App) handleScheduleMessage(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req scheduleMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	at, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		writeError(c, apperror.Validation("scheduledAt must be RFC3339"))
		return
	}
	sm := &domain.ScheduledMessage{
		ChatRoomID:  roomID,
		SenderID:    currentUserID(c),
		Content:     req.Content,
		ScheduledAt: at.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.Store.ScheduledCreate(c.Request.Context(), sm); err != nil {
		writeError(c, apperror.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, scheduledMessageJSON(sm))
}

// handleForwardMessage re-sends a message's content into a different room
// as a brand new message, rather than moving or aliasing the original.
func (a *App) handleForwardMessage(c *gin.Context) {
	id, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req forwardMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	original, err := a.Store.MessageGet(c.Request.Context(), id)
	if err != nil {
		writeError(c, apperror.NotFound("message not found"))
		return
	}
	if original.ContentCiphertext != nil && *original.ContentCiphertext != "" {
		writeError(c, apperror.Validation("end-to-end encrypted messages cannot be forwarded"))
		return
	}
	item, err := a.Messages.Create(c.Request.Context(), messagesvc.CreateInput{
		SenderID:   currentUserID(c),
		ChatRoomID: req.TargetChatRoomID,
		Content:    original.RawContent,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}
