package room

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-budget/internal/notify"
	"github.com/npezzotti/go-budget/internal/stats"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1024
	queueSize      = 256
)

type session struct {
	conn     *websocket.Conn
	userId   int
	username string
}

type joinReq struct {
	s      *session
	result chan error
}

type broadcastReq struct {
	frame   []byte
	exclude int
	result  chan int
}

// Room owns every websocket session watching one budget owner. All session
// state is touched only by the room goroutine.
type Room struct {
	ownerId   int
	host      *Host
	log       *log.Logger
	stats     stats.StatsProvider
	sessions  map[*session]struct{}
	join      chan joinReq
	leave     chan *session
	broadcast chan broadcastReq
	heartbeat time.Duration
	idle      time.Duration
	// killTimer unloads the room once it has had no sessions for idle
	killTimer *time.Timer
	exit      chan struct{}
	done      chan struct{}
}

func newRoom(ownerId int, h *Host) *Room {
	return &Room{
		ownerId:   ownerId,
		host:      h,
		log:       h.log,
		stats:     h.stats,
		sessions:  make(map[*session]struct{}),
		join:      make(chan joinReq, queueSize),
		leave:     make(chan *session, queueSize),
		broadcast: make(chan broadcastReq, queueSize),
		heartbeat: h.heartbeat,
		idle:      h.idleTimeout,
		exit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *Room) run() {
	r.log.Printf("starting room %d", r.ownerId)
	ticker := time.NewTicker(r.heartbeat)
	r.killTimer = time.NewTimer(r.idle)
	defer func() {
		ticker.Stop()
		r.killTimer.Stop()
		r.stats.Decr(stats.ActiveRooms)
		close(r.done)
	}()

	for {
		select {
		case req := <-r.join:
			req.result <- r.handleJoin(req.s)
		case s := <-r.leave:
			r.removeSession(s)
		case req := <-r.broadcast:
			req.result <- r.handleBroadcast(req.frame, req.exclude)
		case <-ticker.C:
			r.ping()
		case <-r.killTimer.C:
			if len(r.sessions) > 0 {
				continue
			}
			if r.host.unload(r) {
				r.log.Printf("room %d timed out", r.ownerId)
				return
			}
			r.killTimer.Reset(r.idle)
		case <-r.exit:
			r.log.Printf("room %d is exiting", r.ownerId)
			for s := range r.sessions {
				r.closeSession(s, websocket.CloseGoingAway, "shutting down")
			}
			return
		}
	}
}

func (r *Room) handleJoin(s *session) error {
	frame, err := json.Marshal(notify.ConnectedFrame(s.userId))
	if err != nil {
		return err
	}
	if err := r.write(s, frame); err != nil {
		return err
	}

	r.sessions[s] = struct{}{}
	r.killTimer.Stop()
	r.stats.Incr(stats.RoomSessions)
	r.log.Printf("user %q joined room %d, %d sessions", s.username, r.ownerId, len(r.sessions))

	return nil
}

func (r *Room) handleBroadcast(frame []byte, exclude int) int {
	sent := 0
	for s := range r.sessions {
		if exclude != 0 && s.userId == exclude {
			continue
		}
		if err := r.write(s, frame); err != nil {
			r.log.Printf("broadcast to user %q in room %d: %v", s.username, r.ownerId, err)
			r.closeSession(s, websocket.CloseInternalServerErr, "send failed")
			continue
		}
		sent++
	}

	return sent
}

func (r *Room) ping() {
	frame, err := json.Marshal(notify.PingFrame())
	if err != nil {
		return
	}

	for s := range r.sessions {
		if err := r.write(s, frame); err != nil {
			r.closeSession(s, websocket.CloseInternalServerErr, "ping failed")
		}
	}
}

func (r *Room) write(s *session, frame []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// closeSession sends a close frame with code and drops the session.
func (r *Room) closeSession(s *session, code int, reason string) {
	s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	r.removeSession(s)
}

func (r *Room) removeSession(s *session) {
	if _, ok := r.sessions[s]; !ok {
		return
	}

	delete(r.sessions, s)
	s.conn.Close()
	r.stats.Decr(stats.RoomSessions)
	r.log.Printf("user %q left room %d, %d sessions", s.username, r.ownerId, len(r.sessions))

	if len(r.sessions) == 0 {
		r.killTimer.Reset(r.idle)
	}
}

// readLoop discards inbound messages until the socket fails, then leaves.
func (r *Room) readLoop(s *session) {
	defer func() {
		select {
		case r.leave <- s:
		case <-r.done:
		}
	}()

	s.conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				r.log.Printf("ws: read: %v", err)
			}
			return
		}
	}
}
