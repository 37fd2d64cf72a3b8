package ports

import (
	"context"
	"time"

	"github.com/aretw0/paddock/pkg/domain"
)

// PoolStore defines the interface for the shared pool mapping.
// This is the driven port the lease protocol is layered on: an ordered
// associative structure from canonical member to the instant it next
// becomes available, owned by the backing store and operated on by any
// number of concurrent clients.
type PoolStore interface {
	// Choose atomically selects the eligible member with the smallest
	// available-at instant, pushes that instant forward by lease, and
	// returns the member. Returns an error wrapping
	// domain.ErrNoItemAvailable when nothing is eligible.
	Choose(ctx context.Context, lease time.Duration) (string, error)

	// Replace sets the member's available-at instant, inserting the member
	// if absent. A zero availableAt means "immediately available".
	Replace(ctx context.Context, member string, availableAt time.Time) error

	// Add inserts the member as immediately available only if it is not
	// already present. Returns whether insertion occurred; an existing
	// member's available-at instant is never touched.
	Add(ctx context.Context, member string) (bool, error)

	// Remove deletes the member. Returns whether it was present. Removing
	// a mid-lease member silently invalidates that lease.
	Remove(ctx context.Context, member string) (bool, error)

	// Reset replaces the entire membership with the deduplicated members,
	// all immediately available, writing in batches of batchSize and
	// publishing the new membership in a single atomic swap. When
	// preserveScores is set, members surviving the rotation keep their
	// current available-at instant. Returns the new membership size.
	Reset(ctx context.Context, members []string, batchSize int, preserveScores bool) (int64, error)

	// Members returns every pool entry with its available-at instant.
	Members(ctx context.Context) ([]domain.Member, error)

	// Len returns the current membership size.
	Len(ctx context.Context) (int64, error)
}
