package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/metrics"
)

func newTestSession(sid string, userID int64) *Session {
	return NewSession(sid, userID, nil, zap.NewNop().Sugar(), func(*Session, ClientCommand) {})
}

func TestHub_PublishDeliversOnlyToJoinedSessions(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar(), metrics.New())
	defer hub.Shutdown()

	joined := newTestSession("a", 1)
	notJoined := newTestSession("b", 2)

	hub.Join(42, joined)
	// give the room actor a moment to register before publishing
	time.Sleep(10 * time.Millisecond)

	ev, err := NewEvent(EventMessageUpsert, 42, map[string]string{"hello": "world"})
	require.NoError(t, err)
	hub.Publish(ev)

	select {
	case raw := <-joined.send:
		var got ServerEvent
		require.NoError(t, json.Unmarshal(raw, &got))
		require.Equal(t, EventMessageUpsert, got.Type)
	case <-time.After(time.Second):
		t.Fatal("joined session never received the published event")
	}

	select {
	case <-notJoined.send:
		t.Fatal("a session that never joined the room must not receive its events")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RoomActorExitsWhenLastSessionLeaves(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar(), metrics.New())
	defer hub.Shutdown()

	sess := newTestSession("a", 1)
	hub.Join(7, sess)
	time.Sleep(10 * time.Millisecond)

	require.True(t, sess.JoinedRoom(7))

	hub.Leave(7, sess)
	time.Sleep(10 * time.Millisecond)

	require.False(t, sess.JoinedRoom(7))

	hub.mu.Lock()
	_, exists := hub.rooms[7]
	hub.mu.Unlock()
	require.False(t, exists, "the room actor should be evicted once its last session leaves")
}

func TestHub_ShutdownStopsTheRunGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(zap.NewNop().Sugar(), metrics.New())
	sess := newTestSession("a", 1)
	hub.Join(1, sess)
	time.Sleep(10 * time.Millisecond)
	hub.Leave(1, sess)
	time.Sleep(10 * time.Millisecond)

	hub.Shutdown()
}

func TestSession_QueueOutStopsSessionWhenSendBufferFull(t *testing.T) {
	sess := newTestSession("a", 1)

	ev, err := NewEvent(EventTyping, 1, map[string]string{"x": "y"})
	require.NoError(t, err)

	for i := 0; i < sendBufferSize; i++ {
		sess.QueueOut(ev)
	}
	select {
	case <-sess.stop:
		t.Fatal("session must not be stopped while its send buffer still has room")
	default:
	}

	// One more push overflows the buffer and the session should be torn down.
	sess.QueueOut(ev)
	select {
	case <-sess.stop:
	default:
		t.Fatal("session should be stopped once its send buffer overflows")
	}
}
