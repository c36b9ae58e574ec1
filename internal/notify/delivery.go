package notify

import (
	"context"
	"log"

	"github.com/npezzotti/go-budget/internal/stats"
)

// Publisher pushes a persisted event to live recipients. It never fails the
// caller; it returns how many pushes were handed off.
type Publisher interface {
	Publish(ctx context.Context, ev Event, recipients []Recipient) int
}

// Delivery pushes events over the in-process Registry.
type Delivery struct {
	registry *Registry
	log      *log.Logger
	stats    stats.StatsProvider
}

func NewDelivery(logger *log.Logger, registry *Registry, su stats.StatsProvider) *Delivery {
	return &Delivery{
		registry: registry,
		log:      logger,
		stats:    su,
	}
}

// Push sends ev to userId if connected. Missing connections are not an error.
func (d *Delivery) Push(userId int, ev Event) bool {
	frame, err := SSEFrame(ev)
	if err != nil {
		d.log.Printf("encode event %s: %v", ev.Id, err)
		return false
	}

	if !d.registry.WriteTo(userId, frame) {
		return false
	}

	d.stats.Incr(stats.LivePushes)
	return true
}

func (d *Delivery) Publish(_ context.Context, ev Event, recipients []Recipient) int {
	sent := 0
	for _, rcpt := range recipients {
		ev.Id = rcpt.NotificationId
		if d.Push(rcpt.UserId, ev) {
			sent++
		}
	}

	return sent
}
