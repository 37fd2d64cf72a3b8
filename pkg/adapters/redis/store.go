package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/paddock/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.PoolStore on a single Redis sorted set.
//
// Each element of the zset is the canonical form of an item; its score is
// the unix timestamp (fractional seconds) at which the item next becomes
// available. Choosing an item pushes its score into the future rather than
// removing it, so a lease that is never returned simply lapses when the
// score elapses. Item choice uses ZRANGEBYSCORE, which yields the least
// recently available member first.
//
// The choose step runs as a Lua script so the read-min-then-rewrite pair is
// atomic on the server: two concurrent callers can never be handed the same
// member while the lease duration is positive.
var chooseScript = backend.NewScript(`
local member = redis.call('zrangebyscore', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 1)[1]
if not member then
  return false
end
redis.call('zadd', KEYS[1], ARGV[2], member)
return member
`)

// Store is a stateless protocol facade over the shared pool zset. Any
// number of Store instances, in any number of processes, may operate on the
// same key concurrently.
type Store struct {
	client *backend.Client
	key    string
}

// New creates a Store with its own Redis client.
func New(address, password string, db int, poolKey string) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, poolKey)
}

// NewFromClient creates a Store from an existing client. The caller keeps
// ownership of the client.
func NewFromClient(client *backend.Client, poolKey string) *Store {
	return &Store{
		client: client,
		key:    poolKey,
	}
}

// Choose atomically selects the member with the smallest score among those
// whose score is at or before now, re-scores it to now+lease, and returns
// it. Returns an error wrapping domain.ErrNoItemAvailable when no member is
// eligible.
func (s *Store) Choose(ctx context.Context, lease time.Duration) (string, error) {
	now := time.Now()
	maxScore := formatScore(scoreAt(now))
	newScore := formatScore(scoreAt(now.Add(lease)))

	member, err := chooseScript.Run(ctx, s.client, []string{s.key}, maxScore, newScore).Text()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", fmt.Errorf("pool %q: %w", s.key, domain.ErrNoItemAvailable)
		}
		return "", fmt.Errorf("failed to choose from pool %q: %w", s.key, err)
	}
	return member, nil
}

// Replace sets the member's availability instant, inserting it if absent.
// A zero availableAt makes the member immediately available; a future one
// defers it (a deliberate cooldown). Replacing a member that was never
// added re-admits it; the pool is implicitly open-membership.
func (s *Store) Replace(ctx context.Context, member string, availableAt time.Time) error {
	score := scoreAt(availableAt)
	if availableAt.IsZero() {
		// A second behind the clock so the member is eligible even against
		// a marginally skewed reader.
		score = scoreAt(time.Now().Add(-time.Second))
	}

	err := s.client.ZAdd(ctx, s.key, backend.Z{Score: score, Member: member}).Err()
	if err != nil {
		return fmt.Errorf("failed to replace into pool %q: %w", s.key, err)
	}
	return nil
}

// Add inserts the member as immediately available, only if it is not
// already present. ZADD NX gives the check-then-set atomically, so a
// duplicate Add can never clobber an in-flight lease's score.
func (s *Store) Add(ctx context.Context, member string) (bool, error) {
	added, err := s.client.ZAddNX(ctx, s.key, backend.Z{Score: 0, Member: member}).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add to pool %q: %w", s.key, err)
	}
	return added > 0, nil
}

// Remove deletes the member from the pool. Returns whether it was present.
func (s *Store) Remove(ctx context.Context, member string) (bool, error) {
	removed, err := s.client.ZRem(ctx, s.key, member).Result()
	if err != nil {
		return false, fmt.Errorf("failed to remove from pool %q: %w", s.key, err)
	}
	return removed > 0, nil
}

// Reset replaces the entire pool membership with the given members.
//
// The new membership is materialized under a uniquely named temporary key
// in batches of batchSize, then swapped into place with RENAME. The old
// pool stays fully usable until the instant of the swap; no observer ever
// sees an empty or partially populated pool. When preserveScores is set,
// members present in both the old and new pool keep their current score,
// so rotation does not forget in-flight leases on surviving members.
//
// Returns the size of the new membership (input duplicates collapse).
// On a mid-rotation failure the old pool is untouched; the temporary key
// is deleted best-effort.
func (s *Store) Reset(ctx context.Context, members []string, batchSize int, preserveScores bool) (int64, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	// RENAME has no meaning for an empty source key, so an empty rotation
	// is a plain delete of the live pool.
	if len(members) == 0 {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return 0, fmt.Errorf("failed to clear pool %q: %w", s.key, err)
		}
		return 0, nil
	}

	tempKey := fmt.Sprintf("%s-%s", s.key, uuid.NewString())

	count, err := s.buildPool(ctx, tempKey, members, batchSize, preserveScores)
	if err != nil {
		s.client.Del(context.WithoutCancel(ctx), tempKey)
		return 0, err
	}

	if err := s.client.Rename(ctx, tempKey, s.key).Err(); err != nil {
		s.client.Del(context.WithoutCancel(ctx), tempKey)
		return 0, fmt.Errorf("failed to publish pool %q: %w", s.key, err)
	}
	return count, nil
}

// buildPool populates tempKey with the new membership and returns its size.
func (s *Store) buildPool(ctx context.Context, tempKey string, members []string, batchSize int, preserveScores bool) (int64, error) {
	batch := make([]backend.Z, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.client.ZAdd(ctx, tempKey, batch...).Err(); err != nil {
			return fmt.Errorf("failed to stage pool batch for %q: %w", s.key, err)
		}
		batch = batch[:0]
		return nil
	}

	for _, member := range members {
		batch = append(batch, backend.Z{Score: 0, Member: member})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if preserveScores {
		exists, err := s.client.Exists(ctx, s.key).Result()
		if err != nil {
			return 0, fmt.Errorf("failed to check pool %q: %w", s.key, err)
		}
		if exists > 0 {
			// Intersection scores are SUM(temp, old) = 0 + old, so the
			// union below carries the old scores over the staged zeros.
			intersectKey := tempKey + "-intersect"
			err = s.client.ZInterStore(ctx, intersectKey, &backend.ZStore{
				Keys: []string{tempKey, s.key},
			}).Err()
			if err != nil {
				return 0, fmt.Errorf("failed to intersect pool %q: %w", s.key, err)
			}
			err = s.client.ZUnionStore(ctx, tempKey, &backend.ZStore{
				Keys: []string{intersectKey, tempKey},
			}).Err()
			if err != nil {
				s.client.Del(context.WithoutCancel(ctx), intersectKey)
				return 0, fmt.Errorf("failed to merge scores for pool %q: %w", s.key, err)
			}
			if err := s.client.Del(ctx, intersectKey).Err(); err != nil {
				return 0, fmt.Errorf("failed to drop scratch key for pool %q: %w", s.key, err)
			}
		}
	}

	count, err := s.client.ZCard(ctx, tempKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to size staged pool for %q: %w", s.key, err)
	}
	return count, nil
}

// Members returns every pool entry with its availability instant, ordered
// by score ascending.
func (s *Store) Members(ctx context.Context) ([]domain.Member, error) {
	entries, err := s.client.ZRangeWithScores(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pool %q: %w", s.key, err)
	}

	members := make([]domain.Member, 0, len(entries))
	for _, entry := range entries {
		element, ok := entry.Member.(string)
		if !ok {
			return nil, fmt.Errorf("pool %q holds non-string member %v", s.key, entry.Member)
		}
		members = append(members, domain.Member{
			Element:     element,
			AvailableAt: timeAt(entry.Score),
		})
	}
	return members, nil
}

// Len returns the current pool membership size.
func (s *Store) Len(ctx context.Context) (int64, error) {
	size, err := s.client.ZCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to size pool %q: %w", s.key, err)
	}
	return size, nil
}

// Close closes the underlying redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// DefaultBatchSize bounds the size of a single staging write during Reset.
const DefaultBatchSize = 500

// scoreAt converts an instant to a zset score (unix seconds, fractional).
// The zero time maps to score 0, i.e. available since the epoch.
func scoreAt(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

// timeAt is the inverse of scoreAt.
func timeAt(score float64) time.Time {
	return time.Unix(0, int64(score*float64(time.Second)))
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
