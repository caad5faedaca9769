// Package push implements the best-effort side-channel notification
// fan-out (spec §4.1 step 12): a registry of Handlers, each a webhook or
// bot integration, grounded directly on the teacher's server/push/push.go
// registry shape.
package push

import (
	"sync"

	"go.uber.org/zap"
)

// Recipient is a single device/user target for a push payload, mirroring
// the teacher's push.Recipient.
type Recipient struct {
	UserID   int64
	DeviceID string
	Platform string
	Lang     string
}

// Payload is the minimal push content every Handler receives.
type Payload struct {
	RoomID    int64
	MessageID int64
	SenderID  int64
	Preview   string
}

// Handler is implemented by a concrete push vendor adapter (webhook,
// FCM-shaped notifier, bot relay). This core ships none; it only defines
// the registry so a caller can plug one in without the message pipeline
// importing a vendor SDK.
type Handler interface {
	Init(jsonConfig string) error
	IsReady() bool
	Push(Recipient, Payload) error
	Stop()
}

var (
	mu       sync.Mutex
	handlers = make(map[string]Handler)
)

// Register adds a named Handler to the registry, following the teacher's
// Register(name, handler) at package scope.
func Register(name string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = h
}

// Registry fans a payload out to every ready handler, logging (never
// propagating) individual handler failures — push is always best-effort.
type Registry struct {
	log *zap.SugaredLogger
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{log: log}
}

func (r *Registry) Push(recipients []Recipient, payload Payload) {
	mu.Lock()
	snapshot := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		snapshot = append(snapshot, h)
	}
	mu.Unlock()

	for _, h := range snapshot {
		if !h.IsReady() {
			continue
		}
		for _, rcpt := range recipients {
			if err := h.Push(rcpt, payload); err != nil {
				r.log.Warnw("push handler failed", "error", err, "userId", rcpt.UserID)
			}
		}
	}
}

func (r *Registry) Stop() {
	mu.Lock()
	defer mu.Unlock()
	for _, h := range handlers {
		h.Stop()
	}
}
