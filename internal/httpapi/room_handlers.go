package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/backboneproto/corechat/internal/apperror"
	"github.com/backboneproto/corechat/internal/domain"
)

func (a *App) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	room, err := a.Rooms.Create(c.Request.Context(), currentUserID(c), req.Name, req.IsGroup)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, roomJSON(room))
}

func (a *App) handleListParticipants(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	participants, err := a.Store.ParticipantsForRoom(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, apperror.Internal(err))
		return
	}
	c.JSON(http.StatusOK, participantsJSON(participants))
}

func (a *App) handleAddParticipant(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	if err := a.Rooms.AddParticipant(c.Request.Context(), currentUserID(c), roomID, req.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleChangeRole(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	targetID, err := pathInt64(c, "userId")
	if err != nil {
		writeError(c, err)
		return
	}
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	role := domain.ParticipantRole(req.Role)
	if err := a.Rooms.ChangeRole(c.Request.Context(), currentUserID(c), roomID, targetID, role); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handlePromote(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	targetID, err := pathInt64(c, "userId")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.Rooms.Promote(c.Request.Context(), currentUserID(c), roomID, targetID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleRemoveParticipant(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	targetID, err := pathInt64(c, "userId")
	if err != nil {
		writeError(c, err)
		return
	}
	if err := a.Rooms.Remove(c.Request.Context(), currentUserID(c), roomID, targetID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *App) handleCreateInvite(c *gin.Context) {
	roomID, err := pathInt64(c, "id")
	if err != nil {
		writeError(c, err)
		return
	}
	var req createInviteRequest
	_ = c.ShouldBindJSON(&req)
	var ttl *time.Duration
	if req.TTLSeconds != nil {
		d := time.Duration(*req.TTLSeconds) * time.Second
		ttl = &d
	}
	invite, err := a.Rooms.CreateInvite(c.Request.Context(), currentUserID(c), roomID, ttl)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inviteJSON(invite))
}

func (a *App) handleRedeemInvite(c *gin.Context) {
	code := c.Param("id")
	room, err := a.Rooms.RedeemInvite(c.Request.Context(), currentUserID(c), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, roomJSON(room))
}
