package room

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/stats"
)

const DefaultIdleTimeout = time.Minute

var (
	ErrShuttingDown = errors.New("room host is shutting down")
	ErrRoomBusy     = errors.New("room queue is full")
	ErrRoomClosed   = errors.New("room closed")
)

// Host runs one Room per budget owner, creating rooms on first use and
// unloading them when idle.
type Host struct {
	log         *log.Logger
	stats       stats.StatsProvider
	secret      string
	heartbeat   time.Duration
	idleTimeout time.Duration
	mu          sync.Mutex
	rooms       map[int]*Room
	closed      bool
}

func NewHost(logger *log.Logger, su stats.StatsProvider, secret string, heartbeat, idleTimeout time.Duration) *Host {
	if heartbeat <= 0 {
		heartbeat = notify.DefaultHeartbeat
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	su.RegisterMetric(stats.ActiveRooms)
	su.RegisterMetric(stats.RoomSessions)

	return &Host{
		log:         logger,
		stats:       su,
		secret:      secret,
		heartbeat:   heartbeat,
		idleTimeout: idleTimeout,
		rooms:       make(map[int]*Room),
	}
}

// loadRoom returns the owner's room, starting it if needed. Callers hold h.mu.
func (h *Host) loadRoom(ownerId int) *Room {
	if r, ok := h.rooms[ownerId]; ok {
		return r
	}

	r := newRoom(ownerId, h)
	h.rooms[ownerId] = r
	h.stats.Incr(stats.ActiveRooms)
	go r.run()

	return r
}

// unload removes r unless work was queued for it after its timer fired.
func (h *Host) unload(r *Room) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(r.join) > 0 || len(r.broadcast) > 0 {
		return false
	}
	if cur, ok := h.rooms[r.ownerId]; ok && cur == r {
		delete(h.rooms, r.ownerId)
	}

	return true
}

func (h *Host) join(ownerId int, s *session) (*Room, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrShuttingDown
	}

	r := h.loadRoom(ownerId)
	req := joinReq{s: s, result: make(chan error, 1)}
	select {
	case r.join <- req:
	default:
		h.mu.Unlock()
		return nil, ErrRoomBusy
	}
	h.mu.Unlock()

	select {
	case err := <-req.result:
		return r, err
	case <-r.done:
		return nil, ErrRoomClosed
	}
}

// Broadcast sends frame to every session in the owner's room except those of
// excludeUserId, and returns how many sends succeeded. An owner without a
// loaded room has no sessions.
func (h *Host) Broadcast(ownerId int, frame []byte, excludeUserId int) (int, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return 0, ErrShuttingDown
	}

	r, ok := h.rooms[ownerId]
	if !ok {
		h.mu.Unlock()
		return 0, nil
	}

	req := broadcastReq{frame: frame, exclude: excludeUserId, result: make(chan int, 1)}
	select {
	case r.broadcast <- req:
	default:
		h.mu.Unlock()
		return 0, ErrRoomBusy
	}
	h.mu.Unlock()

	select {
	case n := <-req.result:
		return n, nil
	case <-r.done:
		return 0, ErrRoomClosed
	}
}

func (h *Host) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.rooms)
}

// Shutdown closes every session and waits for all rooms to exit.
func (h *Host) Shutdown() {
	h.log.Println("shutting down rooms")
	h.mu.Lock()
	h.closed = true
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.rooms = make(map[int]*Room)
	h.mu.Unlock()

	for _, r := range rooms {
		close(r.exit)
		<-r.done
	}
}
