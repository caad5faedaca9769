package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/backboneproto/corechat/internal/apperror"
)

func (a *App) setSessionCookie(c *gin.Context, token string, maxAgeSec int) {
	secure := a.Cfg.GoEnv == "production"
	c.SetCookie(sessionCookieName, token, maxAgeSec, "/", "", secure, true)
}

func (a *App) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	u, err := a.Auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "username": u.Username, "email": u.Email})
}

func (a *App) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	res, err := a.Auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.MFARequired {
		c.JSON(http.StatusOK, gin.H{"mfaRequired": true, "mfaToken": res.MFAToken})
		return
	}
	a.setSessionCookie(c, res.Token, 7*24*3600)
	c.JSON(http.StatusOK, gin.H{"id": res.User.ID, "username": res.User.Username})
}

func (a *App) handleMFALogin(c *gin.Context) {
	var req mfaLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	res, err := a.Auth.CompleteMFA(c.Request.Context(), req.MFAToken)
	if err != nil {
		writeError(c, err)
		return
	}
	a.setSessionCookie(c, res.Token, 7*24*3600)
	c.JSON(http.StatusOK, gin.H{"id": res.User.ID, "username": res.User.Username})
}

func (a *App) handleLogout(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", a.Cfg.GoEnv == "production", true)
	c.Status(http.StatusNoContent)
}

func (a *App) handleMe(c *gin.Context) {
	u, err := a.Store.UserGet(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, apperror.NotFound("user not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
		"plan":     u.Plan,
	})
}

func (a *App) handleForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	tok := a.Auth.ForgotPassword(c.Request.Context(), req.Email)
	resp := gin.H{"ok": true}
	if tok != "" {
		resp["resetToken"] = tok
	}
	c.JSON(http.StatusOK, resp)
}

func (a *App) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	if err := a.Auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
