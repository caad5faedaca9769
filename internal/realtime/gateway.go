package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// CommandHandler processes one decoded ClientCommand for a Session.
type CommandHandler func(ctx context.Context, sess *Session, payload json.RawMessage) error

// MessageFetcher is the single capability the gateway needs from the
// persistence layer: looking a message up by id, used to validate
// message_copied notices. Rather than importing internal/store directly
// (which would let the socket bus reach past the service layer into
// storage), the concrete function is registered once at startup by
// cmd/server (REDESIGN: narrow capability injection instead of a direct
// store import).
type MessageFetcher func(ctx context.Context, messageID int64) (exists bool, recipientIDs []int64, err error)

// Gateway is the real-time socket entrypoint: it owns the Hub and a
// command-dispatch table filled through RegisterHandler, so this package
// never imports the service layer. message_copied is handled by the
// Gateway itself; cmd/server registers no handlers, so every other
// command is logged and dropped by Dispatch.
type Gateway struct {
	Hub *Hub

	handlers map[ClientCommandType]CommandHandler
	fetchMsg MessageFetcher

	log *zap.SugaredLogger
}

func NewGateway(hub *Hub, log *zap.SugaredLogger) *Gateway {
	return &Gateway{
		Hub:      hub,
		handlers: make(map[ClientCommandType]CommandHandler),
		log:      log,
	}
}

// RegisterHandler wires a command type to its handler. Called once per
// command type during startup wiring.
func (g *Gateway) RegisterHandler(t ClientCommandType, h CommandHandler) {
	g.handlers[t] = h
}

// SetMessageFetcher installs the narrow message-lookup capability.
func (g *Gateway) SetMessageFetcher(f MessageFetcher) {
	g.fetchMsg = f
}

// Dispatch routes a decoded command to its registered handler. Unknown
// commands and handler errors are logged and otherwise swallowed: a
// malformed or rejected socket command never tears down the connection.
func (g *Gateway) Dispatch(ctx context.Context, sess *Session, cmd ClientCommand) {
	if cmd.Type == CommandMessageCopied {
		g.handleMessageCopied(ctx, sess, cmd.Payload)
		return
	}

	h, ok := g.handlers[cmd.Type]
	if !ok {
		g.log.Debugw("no handler registered for command", "type", cmd.Type)
		return
	}
	if err := h(ctx, sess, cmd.Payload); err != nil {
		g.log.Warnw("command handler failed", "type", cmd.Type, "error", err, "sid", sess.SID())
	}
}

type messageCopiedPayload struct {
	MessageID int64 `json:"messageId"`
}

func (g *Gateway) handleMessageCopied(ctx context.Context, sess *Session, raw json.RawMessage) {
	if g.fetchMsg == nil {
		return
	}
	var p messageCopiedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return
	}
	exists, recipients, err := g.fetchMsg(ctx, p.MessageID)
	if err != nil || !exists {
		return
	}
	ev, err := NewEvent(EventMessageCopied, 0, map[string]interface{}{
		"messageId": p.MessageID,
		"by":        sess.UserID(),
	})
	if err != nil {
		return
	}
	for _, uid := range recipients {
		_ = uid
		g.Hub.Publish(ev)
	}
}
