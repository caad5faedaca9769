package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/backboneproto/corechat/internal/metrics"
)

// Hub is the central router between Sessions and per-room Room actors,
// grounded on the teacher's hub.go: one goroutine owns topic
// creation/teardown so no two goroutines race on the room registry.
type Hub struct {
	mu    sync.Mutex
	rooms map[int64]*Room

	join   chan joinRequest
	leave  chan leaveRequest
	route  chan *ServerEvent
	closed chan int64
	stop   chan chan struct{}

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
}

type joinRequest struct {
	roomID int64
	sess   *Session
}

type leaveRequest struct {
	roomID int64
	sess   *Session
}

func NewHub(log *zap.SugaredLogger, m *metrics.Metrics) *Hub {
	h := &Hub{
		rooms:   make(map[int64]*Room),
		join:    make(chan joinRequest),
		leave:   make(chan leaveRequest),
		route:   make(chan *ServerEvent, 4096),
		closed:  make(chan int64),
		stop:    make(chan chan struct{}),
		log:     log,
		metrics: m,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case j := <-h.join:
			room := h.roomOrCreate(j.roomID)
			room.reg <- &sessionJoin{sess: j.sess}

		case l := <-h.leave:
			h.mu.Lock()
			room, ok := h.rooms[l.roomID]
			h.mu.Unlock()
			if ok {
				room.unreg <- &sessionLeave{sess: l.sess}
			}

		case ev := <-h.route:
			h.mu.Lock()
			room, ok := h.rooms[ev.RoomID]
			h.mu.Unlock()
			if ok {
				room.broadcast <- ev
			}

		case roomID := <-h.closed:
			h.mu.Lock()
			delete(h.rooms, roomID)
			h.mu.Unlock()

		case done := <-h.stop:
			h.mu.Lock()
			for id, room := range h.rooms {
				close(room.done)
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			close(done)
			return
		}
	}
}

func (h *Hub) roomOrCreate(roomID int64) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomID]
	if !ok {
		room = newRoom(roomID, h.closed, h.log, h.metrics)
		h.rooms[roomID] = room
		go room.run()
	}
	return room
}

// Join subscribes sess to roomID's broadcast set.
func (h *Hub) Join(roomID int64, sess *Session) {
	h.join <- joinRequest{roomID: roomID, sess: sess}
}

// Leave unsubscribes sess from roomID.
func (h *Hub) Leave(roomID int64, sess *Session) {
	h.leave <- leaveRequest{roomID: roomID, sess: sess}
}

// Publish broadcasts ev to every session currently joined to ev.RoomID.
// Publish failures (no such room, or the room has no members) are
// silent: socket emit failures log and continue per spec §7.
func (h *Hub) Publish(ev *ServerEvent) {
	select {
	case h.route <- ev:
	default:
		h.log.Warnw("hub route buffer full, dropping event", "roomId", ev.RoomID, "type", ev.Type)
	}
}

// Shutdown stops every room actor and the hub goroutine. Events still
// queued for routing are dropped.
func (h *Hub) Shutdown() {
	done := make(chan struct{})
	h.stop <- done
	<-done
}
