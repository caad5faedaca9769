// Package realtime implements the real-time socket gateway (spec §4.3):
// a central Hub routing between per-room actor goroutines and
// per-connection Session goroutines, grounded on the teacher's
// hub.go/topic.go/session.go actor model. The access-mode bitmask
// subscription semantics that model replaced by the spec's simpler
// membership/role state, owned by internal/roomsvc and merely consulted
// here.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
	sendBufferSize = 256
)

// Session is one client's real-time connection, mirroring the teacher's
// session.go: a read goroutine, a write goroutine, and a buffered send
// channel bridging hub/room broadcasts to the socket.
type Session struct {
	sid    string
	userID int64
	conn   *websocket.Conn
	log    *zap.SugaredLogger

	send chan []byte
	stop chan struct{}

	mu    sync.Mutex
	rooms map[int64]bool

	dispatch func(*Session, ClientCommand)
}

// NewSession wraps conn for userID. dispatch is called for every decoded
// inbound command; it is supplied by the caller (the HTTP socket upgrade
// passes a closure over Gateway.Dispatch) so this package never imports
// the service layer directly.
func NewSession(sid string, userID int64, conn *websocket.Conn, log *zap.SugaredLogger, dispatch func(*Session, ClientCommand)) *Session {
	return &Session{
		sid:      sid,
		userID:   userID,
		conn:     conn,
		log:      log,
		send:     make(chan []byte, sendBufferSize),
		stop:     make(chan struct{}),
		rooms:    make(map[int64]bool),
		dispatch: dispatch,
	}
}

func (s *Session) SID() string    { return s.sid }
func (s *Session) UserID() int64  { return s.userID }

func (s *Session) JoinedRoom(roomID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[roomID]
}

func (s *Session) MarkJoined(roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = true
}

func (s *Session) MarkLeft(roomID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

func (s *Session) JoinedRooms() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.rooms))
	for r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// QueueOut enqueues an event for delivery, dropping the session (by
// closing stop) if the send buffer is full rather than blocking the
// room actor's broadcast loop — matching the teacher's queueOut
// back-pressure handling.
func (s *Session) QueueOut(ev *ServerEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		s.log.Errorw("failed to marshal outbound event", "error", err)
		return
	}
	select {
	case s.send <- raw:
	default:
		s.log.Warnw("session send buffer full, dropping session", "sid", s.sid)
		s.Stop()
	}
}

func (s *Session) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

// ReadLoop decodes inbound frames and hands them to dispatch until the
// connection closes.
func (s *Session) ReadLoop() {
	defer s.Stop()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd ClientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.log.Debugw("dropping malformed client frame", "error", err)
			continue
		}
		s.dispatch(s, cmd)
	}
}

// WriteLoop drains the send channel to the socket and keeps the
// connection alive with periodic pings.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.stop:
			return
		}
	}
}
