package notify

import (
	"log"
	"sync"

	"github.com/npezzotti/go-budget/internal/stats"
)

// Conn is a live push channel to one user.
type Conn interface {
	Write(frame []byte) error
	Close() error
}

// Registry maps each user to at most one live connection. Losing a user's
// connection also drops that user's subscriptions.
type Registry struct {
	mu    sync.Mutex
	conns map[int]Conn
	subs  *Subscriptions
	log   *log.Logger
	stats stats.StatsProvider
}

func NewRegistry(logger *log.Logger, subs *Subscriptions, su stats.StatsProvider) *Registry {
	return &Registry{
		conns: make(map[int]Conn),
		subs:  subs,
		log:   logger,
		stats: su,
	}
}

// Register makes c the user's connection. A previous connection is closed.
func (r *Registry) Register(userId int, c Conn) {
	r.mu.Lock()
	old, replaced := r.conns[userId]
	r.conns[userId] = c
	r.mu.Unlock()

	if replaced {
		if old != c {
			r.log.Printf("replacing connection for user %d", userId)
			old.Close()
		}
		return
	}

	r.stats.Incr(stats.ActiveStreams)
}

// Deregister removes the user's connection, if any, and their subscriptions.
// It is safe to call more than once.
func (r *Registry) Deregister(userId int) {
	r.mu.Lock()
	_, ok := r.conns[userId]
	delete(r.conns, userId)
	r.mu.Unlock()

	if ok {
		r.stats.Decr(stats.ActiveStreams)
	}
	if n := r.subs.RemoveSubscriber(userId); n > 0 {
		r.log.Printf("dropped %d subscriptions for user %d", n, userId)
	}
}

// Release deregisters userId only if c is still the current connection, so a
// stream that was replaced does not tear down its successor.
func (r *Registry) Release(userId int, c Conn) bool {
	r.mu.Lock()
	cur, ok := r.conns[userId]
	if !ok || cur != c {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userId)
	r.mu.Unlock()

	r.stats.Decr(stats.ActiveStreams)
	r.subs.RemoveSubscriber(userId)
	return true
}

// WriteTo writes frame to the user's connection. A failed write removes and
// closes that connection. It reports whether the frame was handed off.
func (r *Registry) WriteTo(userId int, frame []byte) bool {
	r.mu.Lock()
	c, ok := r.conns[userId]
	r.mu.Unlock()
	if !ok {
		return false
	}

	if err := c.Write(frame); err != nil {
		r.log.Printf("write to user %d: %v", userId, err)
		r.stats.Incr(stats.DeadConnections)
		r.Release(userId, c)
		c.Close()
		return false
	}

	return true
}

func (r *Registry) Connected(userId int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.conns[userId]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.conns)
}

// CloseAll closes every registered connection. Each stream deregisters itself
// as it exits.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
