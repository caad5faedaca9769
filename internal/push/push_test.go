package push

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHandler struct {
	mu      sync.Mutex
	ready   bool
	pushed  []Recipient
	failErr error
	stopped bool
}

func (f *fakeHandler) Init(string) error { return nil }
func (f *fakeHandler) IsReady() bool     { return f.ready }
func (f *fakeHandler) Push(r Recipient, _ Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.pushed = append(f.pushed, r)
	return nil
}
func (f *fakeHandler) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeHandler) pushedRecipients() []Recipient {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Recipient(nil), f.pushed...)
}

func TestRegistry_PushSkipsHandlersNotReady(t *testing.T) {
	notReady := &fakeHandler{ready: false}
	Register("test-not-ready", notReady)

	reg := NewRegistry(zap.NewNop().Sugar())
	reg.Push([]Recipient{{UserID: 1}}, Payload{Preview: "hi"})

	require.Empty(t, notReady.pushedRecipients())
}

func TestRegistry_PushFansOutToReadyHandlers(t *testing.T) {
	ready := &fakeHandler{ready: true}
	Register("test-ready", ready)

	reg := NewRegistry(zap.NewNop().Sugar())
	recipients := []Recipient{{UserID: 1}, {UserID: 2}}
	reg.Push(recipients, Payload{Preview: "hello"})

	require.Len(t, ready.pushedRecipients(), 2)
}

func TestRegistry_PushSwallowsHandlerErrors(t *testing.T) {
	failing := &fakeHandler{ready: true, failErr: errors.New("webhook down")}
	Register("test-failing", failing)

	reg := NewRegistry(zap.NewNop().Sugar())
	require.NotPanics(t, func() {
		reg.Push([]Recipient{{UserID: 1}}, Payload{Preview: "hello"})
	})
}

func TestRegistry_StopStopsEveryRegisteredHandler(t *testing.T) {
	h := &fakeHandler{ready: true}
	Register("test-stoppable", h)

	reg := NewRegistry(zap.NewNop().Sugar())
	reg.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	require.True(t, h.stopped)
}
