package realtime

import (
	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/metrics"
)

type sessionJoin struct {
	sess *Session
}

type sessionLeave struct {
	sess *Session
}

// Room is the per-chat-room actor, grounded on the teacher's topic.go
// run() loop: a single goroutine owns the session set and serializes all
// broadcasts through one channel so fan-out preserves commit order per
// room (spec §5 ordering).
type Room struct {
	roomID int64

	reg       chan *sessionJoin
	unreg     chan *sessionLeave
	broadcast chan *ServerEvent
	done      chan struct{}

	sessions map[*Session]bool
	closed   chan<- int64

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

func newRoom(roomID int64, closed chan<- int64, log *zap.SugaredLogger, m *metrics.Metrics) *Room {
	return &Room{
		roomID:    roomID,
		reg:       make(chan *sessionJoin),
		unreg:     make(chan *sessionLeave),
		broadcast: make(chan *ServerEvent, 256),
		done:      make(chan struct{}),
		sessions:  make(map[*Session]bool),
		closed:    closed,
		log:       log,
		metrics:   m,
	}
}

// run is the actor loop. It exits once the last session leaves, notifying
// the Hub on r.closed so the room entry can be evicted from the routing
// table — mirroring the teacher's topicUnreg path out of hub.go.
func (r *Room) run() {
	r.metrics.RoomOpened()
	defer r.metrics.RoomClosed()

	for {
		select {
		case j := <-r.reg:
			r.sessions[j.sess] = true
			j.sess.MarkJoined(r.roomID)

		case l := <-r.unreg:
			if _, ok := r.sessions[l.sess]; ok {
				delete(r.sessions, l.sess)
				l.sess.MarkLeft(r.roomID)
			}
			if len(r.sessions) == 0 {
				r.closed <- r.roomID
				return
			}

		case ev := <-r.broadcast:
			for sess := range r.sessions {
				sess.QueueOut(ev)
			}

		case <-r.done:
			return
		}
	}
}
