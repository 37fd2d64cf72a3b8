package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/paddock/pkg/domain"
)

// Store implements ports.PoolStore in process memory.
//
// It exists for tests and for embedding a pool in a single process without
// a Redis dependency; it provides the same semantics as the Redis adapter
// but no cross-process sharing. All operations are guarded by one mutex,
// which trivially gives the atomicity the protocol requires.
type Store struct {
	mu      sync.Mutex
	members map[string]time.Time
}

// New creates an empty in-memory pool.
func New() *Store {
	return &Store{
		members: make(map[string]time.Time),
	}
}

// Choose selects the eligible member with the smallest available-at
// instant, ties broken lexicographically to match the Redis adapter's
// range-scan order.
func (s *Store) Choose(ctx context.Context, lease time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var (
		best  string
		found bool
	)
	for member, availableAt := range s.members {
		if availableAt.After(now) {
			continue
		}
		if !found {
			best, found = member, true
			continue
		}
		if availableAt.Before(s.members[best]) ||
			(availableAt.Equal(s.members[best]) && member < best) {
			best = member
		}
	}
	if !found {
		return "", fmt.Errorf("in-memory pool: %w", domain.ErrNoItemAvailable)
	}

	s.members[best] = now.Add(lease)
	return best, nil
}

// Replace sets the member's availability instant, inserting it if absent.
func (s *Store) Replace(ctx context.Context, member string, availableAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if availableAt.IsZero() {
		availableAt = time.Now().Add(-time.Second)
	}
	s.members[member] = availableAt
	return nil
}

// Add inserts the member as immediately available if not already present.
func (s *Store) Add(ctx context.Context, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member]; exists {
		return false, nil
	}
	s.members[member] = time.Time{}
	return true, nil
}

// Remove deletes the member, reporting whether it was present.
func (s *Store) Remove(ctx context.Context, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.members[member]
	delete(s.members, member)
	return exists, nil
}

// Reset replaces the membership. batchSize is accepted for interface
// parity; there is no network round trip to bound.
func (s *Store) Reset(ctx context.Context, members []string, batchSize int, preserveScores bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]time.Time, len(members))
	for _, member := range members {
		next[member] = time.Time{}
	}
	if preserveScores {
		for member := range next {
			if availableAt, exists := s.members[member]; exists {
				next[member] = availableAt
			}
		}
	}

	s.members = next
	return int64(len(next)), nil
}

// Members returns every entry ordered by availability ascending.
func (s *Store) Members(ctx context.Context) ([]domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := make([]domain.Member, 0, len(s.members))
	for member, availableAt := range s.members {
		members = append(members, domain.Member{
			Element:     member,
			AvailableAt: availableAt,
		})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].AvailableAt.Equal(members[j].AvailableAt) {
			return members[i].Element < members[j].Element
		}
		return members[i].AvailableAt.Before(members[j].AvailableAt)
	})
	return members, nil
}

// Len returns the membership size.
func (s *Store) Len(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.members)), nil
}
