package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-budget/internal/database"
	"github.com/npezzotti/go-budget/internal/stats"
)

// Store is the persistence the Notifier needs.
type Store interface {
	GetAccountById(ctx context.Context, id int) (database.User, error)
	CreateNotifications(ctx context.Context, notifications []database.Notification) error
	ListNotifications(ctx context.Context, userId, limit int) ([]database.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, userId int) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userId int) (int64, error)
	DeleteNotificationsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Audience resolves the users interested in an owner's activity.
type Audience interface {
	Resolve(ctx context.Context, ownerId int) ([]int, error)
}

// ShareAudience is the owner plus everyone holding a share on the owner's
// budget. It is used when live subscriptions are not visible to this process.
type ShareAudience struct {
	Shares interface {
		ListShareUserIds(ctx context.Context, ownerId int) ([]int, error)
	}
}

func (a ShareAudience) Resolve(ctx context.Context, ownerId int) ([]int, error) {
	ids, err := a.Shares.ListShareUserIds(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	return append([]int{ownerId}, ids...), nil
}

type Notifier struct {
	log       *log.Logger
	store     Store
	audience  Audience
	publisher Publisher
	stats     stats.StatsProvider
	newId     func() string
	now       func() time.Time
}

func NewNotifier(logger *log.Logger, store Store, audience Audience, publisher Publisher, su stats.StatsProvider) *Notifier {
	return &Notifier{
		log:       logger,
		store:     store,
		audience:  audience,
		publisher: publisher,
		stats:     su,
		newId:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateNotification persists one row per interested user other than the
// source, in a single call, then pushes the event live. Only persistence and
// lookup errors are returned.
func (n *Notifier) CreateNotification(ctx context.Context, sourceUserId, budgetOwnerId int, p Params) error {
	audience, err := n.audience.Resolve(ctx, budgetOwnerId)
	if err != nil {
		return fmt.Errorf("resolve audience: %w", err)
	}

	targets := make([]int, 0, len(audience))
	seen := make(map[int]struct{}, len(audience))
	for _, id := range audience {
		if id == sourceUserId {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		return nil
	}

	source, err := n.store.GetAccountById(ctx, sourceUserId)
	if err != nil {
		return fmt.Errorf("get source account: %w", err)
	}

	owner := source
	if budgetOwnerId != sourceUserId {
		owner, err = n.store.GetAccountById(ctx, budgetOwnerId)
		if err != nil {
			return fmt.Errorf("get budget owner account: %w", err)
		}
	}

	params, err := json.Marshal(p.bounded())
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	createdAt := n.now()
	rows := make([]database.Notification, len(targets))
	recipients := make([]Recipient, len(targets))
	for i, target := range targets {
		id := n.newId()
		rows[i] = database.Notification{
			Id:            id,
			Type:          string(p.Type()),
			Params:        string(params),
			TargetUserId:  target,
			SourceUserId:  sourceUserId,
			BudgetOwnerId: budgetOwnerId,
			CreatedAt:     createdAt,
		}
		recipients[i] = Recipient{UserId: target, NotificationId: id}
	}

	if err := n.store.CreateNotifications(ctx, rows); err != nil {
		return fmt.Errorf("persist notifications: %w", err)
	}

	for range rows {
		n.stats.Incr(stats.NotificationsCreated)
	}

	ev := Event{
		Type:                p.Type(),
		Params:              params,
		SourceUsername:      source.Username,
		BudgetOwnerUsername: owner.Username,
		CreatedAt:           createdAt,
		SourceUserId:        sourceUserId,
		BudgetOwnerId:       budgetOwnerId,
	}
	sent := n.publisher.Publish(ctx, ev, recipients)
	n.log.Printf("%s on budget %d: %d stored, %d pushed", p.Type(), budgetOwnerId, len(rows), sent)

	return nil
}

// ListFor returns userId's notifications, newest first.
func (n *Notifier) ListFor(ctx context.Context, userId, limit int) ([]database.Notification, error) {
	return n.store.ListNotifications(ctx, userId, limit)
}

// MarkRead marks id read only if it targets userId.
func (n *Notifier) MarkRead(ctx context.Context, id string, userId int) (bool, error) {
	return n.store.MarkNotificationRead(ctx, id, userId)
}

func (n *Notifier) MarkAllRead(ctx context.Context, userId int) (int64, error) {
	return n.store.MarkAllNotificationsRead(ctx, userId)
}

// Sweep deletes notifications older than maxAge.
func (n *Notifier) Sweep(ctx context.Context, maxAge time.Duration) (int64, error) {
	return n.store.DeleteNotificationsOlderThan(ctx, n.now().Add(-maxAge))
}

// RunRetention sweeps every interval until ctx is done.
func (n *Notifier) RunRetention(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := n.Sweep(ctx, maxAge)
			if err != nil {
				n.log.Println("retention sweep:", err)
				continue
			}
			if deleted > 0 {
				n.log.Printf("retention sweep removed %d notifications", deleted)
			}
		}
	}
}
