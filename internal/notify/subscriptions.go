package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/npezzotti/go-budget/internal/stats"
)

// Subscriptions indexes which users watch which budget owners. It keeps a
// reverse index so removing a user costs time proportional to that user's own
// subscriptions.
type Subscriptions struct {
	mu         sync.RWMutex
	owners     map[int]map[int]struct{} // owner -> subscribers
	subscribed map[int]map[int]struct{} // subscriber -> owners
	stats      stats.StatsProvider
}

func NewSubscriptions(su stats.StatsProvider) *Subscriptions {
	return &Subscriptions{
		owners:     make(map[int]map[int]struct{}),
		subscribed: make(map[int]map[int]struct{}),
		stats:      su,
	}
}

// Subscribe records that userId watches ownerId. Repeating it has no effect.
func (s *Subscriptions) Subscribe(userId, ownerId int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, ok := s.owners[ownerId]
	if !ok {
		subs = make(map[int]struct{})
		s.owners[ownerId] = subs
	}
	if _, ok := subs[userId]; ok {
		return
	}
	subs[userId] = struct{}{}
	s.stats.Incr(stats.ActiveSubscriptions)

	owned, ok := s.subscribed[userId]
	if !ok {
		owned = make(map[int]struct{})
		s.subscribed[userId] = owned
	}
	owned[ownerId] = struct{}{}
}

func (s *Subscriptions) Unsubscribe(userId, ownerId int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unsubscribe(userId, ownerId)
}

func (s *Subscriptions) unsubscribe(userId, ownerId int) {
	if subs, ok := s.owners[ownerId]; ok {
		if _, ok := subs[userId]; ok {
			delete(subs, userId)
			s.stats.Decr(stats.ActiveSubscriptions)
		}
		if len(subs) == 0 {
			delete(s.owners, ownerId)
		}
	}

	if owned, ok := s.subscribed[userId]; ok {
		delete(owned, ownerId)
		if len(owned) == 0 {
			delete(s.subscribed, userId)
		}
	}
}

// SubscribersOf returns a sorted snapshot of ownerId's subscribers.
func (s *Subscriptions) SubscribersOf(ownerId int) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := s.owners[ownerId]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// HasOwner reports whether ownerId has any subscriber entry at all.
func (s *Subscriptions) HasOwner(ownerId int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.owners[ownerId]
	return ok
}

// RemoveSubscriber drops every subscription held by userId.
func (s *Subscriptions) RemoveSubscriber(userId int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.subscribed[userId]
	n := len(owned)
	for ownerId := range owned {
		s.unsubscribe(userId, ownerId)
	}

	return n
}

// Resolve implements Audience using the in-memory subscriber set.
func (s *Subscriptions) Resolve(_ context.Context, ownerId int) ([]int, error) {
	return s.SubscribersOf(ownerId), nil
}
