package room

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/npezzotti/go-budget/internal/notify"
)

// Broadcaster publishes events to the owner's room on its room host. The
// room reaches whoever has it open, so recipients are not addressed
// individually.
type Broadcaster struct {
	log      *log.Logger
	client   *http.Client
	resolver *Resolver
	secret   string
}

func NewBroadcaster(logger *log.Logger, resolver *Resolver, secret string) *Broadcaster {
	return &Broadcaster{
		log:      logger,
		client:   &http.Client{Timeout: 5 * time.Second},
		resolver: resolver,
		secret:   secret,
	}
}

func (b *Broadcaster) Publish(ctx context.Context, ev notify.Event, _ []notify.Recipient) int {
	ev.Id = ""
	sent, err := b.Broadcast(ctx, ev.BudgetOwnerId, ev, ev.SourceUserId)
	if err != nil {
		b.log.Printf("broadcast %s to room %d: %v", ev.Type, ev.BudgetOwnerId, err)
		return 0
	}

	return sent
}

// Broadcast posts v to the owner's room, skipping excludeUserId's sessions.
func (b *Broadcaster) Broadcast(ctx context.Context, ownerId int, v any, excludeUserId int) (int, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.resolver.URL(ownerId, BroadcastPath(ownerId)).String(), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if excludeUserId != 0 {
		req.Header.Set(HeaderExcludeUserId, strconv.Itoa(excludeUserId))
	}
	if b.secret != "" {
		req.Header.Set(HeaderSecret, b.secret)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("room host returned %s", resp.Status)
	}

	var out BroadcastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode broadcast response: %w", err)
	}

	return out.Sent, nil
}
