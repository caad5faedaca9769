package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/attachments"
	"github.com/backboneproto/corechat/internal/auth"
	"github.com/backboneproto/corechat/internal/authsvc"
	"github.com/backboneproto/corechat/internal/config"
	"github.com/backboneproto/corechat/internal/messagesvc"
	"github.com/backboneproto/corechat/internal/ratelimit"
	"github.com/backboneproto/corechat/internal/realtime"
	"github.com/backboneproto/corechat/internal/roomsvc"
	"github.com/backboneproto/corechat/internal/store"
)

// App bundles every dependency a route handler needs. It is built once in
// cmd/server and threaded in as the receiver for all handler methods,
// mirroring the teacher's own top-level wiring in main.go.
type App struct {
	Store       store.Adapter
	Auth        *authsvc.Service
	Messages    *messagesvc.Service
	Rooms       *roomsvc.Service
	Uploads     *attachments.Service
	Gateway     *realtime.Gateway
	Tokens      *auth.TokenAuth
	JWTVerifier *auth.JWTVerifier
	Limiter     *ratelimit.Limiter
	Cfg         *config.Config
	Log         *zap.SugaredLogger
}

// NewRouter builds the gin engine with every spec §6.1 route wired.
func (a *App) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.Cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", csrfHeaderName},
		AllowCredentials: true,
	}))

	requireSession := requireAuth(a.Tokens, a.JWTVerifier)
	csrf := requireCSRF()

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", a.handleLogin)
		authGroup.POST("/2fa/login", a.handleMFALogin)
		authGroup.POST("/forgot-password", a.handleForgotPassword)
		authGroup.POST("/reset-password", a.handleResetPassword)
		authGroup.POST("/register", a.handleRegister)
		authGroup.POST("/logout", requireSession, csrf, a.handleLogout)
		authGroup.GET("/me", requireSession, a.handleMe)
	}

	messages := r.Group("/messages", requireSession)
	{
		messages.POST("", csrf, rateLimitMessages(a.Limiter), a.handleCreateMessage)
		messages.GET("/:chatRoomId", a.handleListMessages)
		messages.PATCH("/:id/edit", csrf, a.handleEditMessage)
		messages.PATCH("/:id/read", csrf, a.handleMarkRead)
		messages.POST("/read-bulk", csrf, a.handleMarkReadBulk)
		messages.POST("/:id/reactions", csrf, a.handleAddReaction)
		messages.DELETE("/:id/reactions/:emoji", csrf, a.handleRemoveReaction)
		messages.DELETE("/:id", csrf, a.handleDeleteMessage)
		messages.POST("/:id/clear", csrf, a.handleClearRoom)
		messages.POST("/:id/clear-all", csrf, a.handleClearAllRoom)
		messages.POST("/:id/schedule", csrf, a.handleScheduleMessage)
		messages.POST("/:id/forward", csrf, a.handleForwardMessage)
	}

	rooms := r.Group("/rooms", requireSession)
	{
		rooms.POST("", csrf, a.handleCreateRoom)
		rooms.GET("/:id/participants", a.handleListParticipants)
		rooms.POST("/:id/participants", csrf, a.handleAddParticipant)
		rooms.PATCH("/:id/participants/:userId/role", csrf, a.handleChangeRole)
		rooms.POST("/:id/participants/:userId/promote", csrf, a.handlePromote)
		rooms.DELETE("/:id/participants/:userId", csrf, a.handleRemoveParticipant)
	}

	invites := r.Group("/group-invites", requireSession)
	{
		invites.POST("/:id", csrf, a.handleCreateInvite)
		invites.POST("/:id/join", csrf, a.handleRedeemInvite)
	}

	uploads := r.Group("/uploads", requireSession)
	{
		uploads.POST("/intent", csrf, a.handleUploadIntent)
		uploads.POST("/complete", csrf, a.handleUploadComplete)
		uploads.POST("", csrf, a.handleDirectUpload)
		uploads.GET("/:id", a.handleGetUpload)
	}

	r.GET("/ws", requireSession, a.handleSocketUpgrade)

	return r
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleSocketUpgrade promotes the connection to a websocket and hands it
// to the realtime gateway, mirroring the teacher's own serveWebsocket.
func (a *App) handleSocketUpgrade(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	userID := currentUserID(c)
	ctx := c.Request.Context()
	sess := realtime.NewSession(c.Request.RemoteAddr, userID, conn, a.Log, func(s *realtime.Session, cmd realtime.ClientCommand) {
		a.Gateway.Dispatch(ctx, s, cmd)
	})
	go sess.WriteLoop()
	sess.ReadLoop()
}
