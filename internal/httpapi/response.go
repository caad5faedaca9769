package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/backboneproto/corechat/internal/domain"
)

// domain.* types carry no json tags (they are the store layer's internal
// shape); these helpers project them into the camelCase wire shape the
// rest of the API uses.

func roomJSON(r *domain.ChatRoom) gin.H {
	return gin.H{
		"id":                r.ID,
		"name":              r.Name,
		"isGroup":           r.IsGroup,
		"ownerId":           r.OwnerID,
		"autoTranslateMode": r.AutoTranslateMode,
		"createdAt":         r.CreatedAt,
	}
}

func participantJSON(p domain.Participant) gin.H {
	return gin.H{
		"chatRoomId": p.ChatRoomID,
		"userId":     p.UserID,
		"role":       p.Role,
		"archivedAt": p.ArchivedAt,
	}
}

func participantsJSON(ps []domain.Participant) []gin.H {
	out := make([]gin.H, 0, len(ps))
	for _, p := range ps {
		out = append(out, participantJSON(p))
	}
	return out
}

func inviteJSON(inv *domain.InviteCode) gin.H {
	return gin.H{
		"code":       inv.Code,
		"chatRoomId": inv.ChatRoomID,
		"createdAt":  inv.CreatedAt,
		"expiresAt":  inv.ExpiresAt,
	}
}

func scheduledMessageJSON(sm *domain.ScheduledMessage) gin.H {
	return gin.H{
		"id":          sm.ID,
		"chatRoomId":  sm.ChatRoomID,
		"senderId":    sm.SenderID,
		"content":     sm.Content,
		"scheduledAt": sm.ScheduledAt,
		"createdAt":   sm.CreatedAt,
	}
}

func uploadJSON(u *domain.Upload) gin.H {
	return gin.H{
		"id":           u.ID,
		"ownerId":      u.OwnerID,
		"originalName": u.OriginalName,
		"mimeType":     u.MimeType,
		"size":         u.Size,
		"driver":       u.Driver,
		"createdAt":    u.CreatedAt,
	}
}
