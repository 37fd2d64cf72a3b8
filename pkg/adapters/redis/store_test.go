package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/paddock/pkg/adapters/redis"
	"github.com/aretw0/paddock/pkg/domain"
	"github.com/aretw0/paddock/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *redis.Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewFromClient(client, "paddock:test")
}

func TestRedisStore_Contract(t *testing.T) {
	ports.RunPoolStoreContract(t, func(t *testing.T) ports.PoolStore {
		return newTestStore(t)
	})
}

func TestRedisStore_MutualExclusion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 16
	items := make([]string, n)
	for i := range items {
		items[i] = string(rune('a' + i))
		_, err := store.Add(ctx, items[i])
		require.NoError(t, err)
	}

	// N concurrent Choose calls against N eligible members must hand out
	// N distinct members.
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		chosen = make(map[string]int, n)
		errs   []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			member, err := store.Choose(ctx, time.Hour)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			chosen[member]++
		}()
	}
	wg.Wait()

	require.Empty(t, errs, "every caller should have received a member")
	assert.Len(t, chosen, n, "each member must be handed out exactly once")
	for member, count := range chosen {
		assert.Equal(t, 1, count, "member %q handed out more than once", member)
	}

	// The pool is now exhausted.
	_, err := store.Choose(ctx, time.Hour)
	assert.ErrorIs(t, err, domain.ErrNoItemAvailable)
}

func TestRedisStore_LeaseExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "alpha")
	require.NoError(t, err)

	member, err := store.Choose(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "alpha", member)

	// Still leased.
	_, err = store.Choose(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrNoItemAvailable)

	// An expired-but-unreturned lease simply becomes selectable again.
	time.Sleep(150 * time.Millisecond)
	member, err = store.Choose(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "alpha", member)
}

func TestRedisStore_NonPositiveLease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "alpha")
	require.NoError(t, err)

	// A non-positive lease never locks: the same member stays eligible.
	for i := 0; i < 3; i++ {
		member, err := store.Choose(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, "alpha", member)
	}
}

func TestRedisStore_ChoosesLeastRecentlyAvailable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Replace(ctx, "recent", now.Add(-5*time.Second)))
	require.NoError(t, store.Replace(ctx, "stale", now.Add(-30*time.Second)))

	member, err := store.Choose(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "stale", member, "the longest-available member should be picked first")

	member, err = store.Choose(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "recent", member)
}

func TestRedisStore_ReplacePreservesExplicitInstant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lockTill := time.Now().Add(45 * time.Minute)
	require.NoError(t, store.Replace(ctx, "alpha", lockTill))

	members, err := store.Members(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "alpha", members[0].Element)
	assert.WithinDuration(t, lockTill, members[0].AvailableAt, time.Millisecond)
	assert.False(t, members[0].Available(time.Now()))
}

func TestRedisStore_ResetSwapsAtomicallyUnderPoolKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redis.NewFromClient(client, "paddock:rotate")
	ctx := context.Background()

	_, err := store.Add(ctx, "old")
	require.NoError(t, err)

	count, err := store.Reset(ctx, []string{"new-1", "new-2"}, 1, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The membership lives under the pool's own key and nothing else: the
	// staging key must be gone after the swap.
	keys := mr.Keys()
	assert.Equal(t, []string{"paddock:rotate"}, keys)
}

func TestRedisStore_ResetPreservesLeaseInstant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	leasedTill := time.Now().Add(30 * time.Minute)
	require.NoError(t, store.Replace(ctx, "leased", leasedTill))

	count, err := store.Reset(ctx, []string{"leased", "fresh"}, redis.DefaultBatchSize, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	members, err := store.Members(ctx)
	require.NoError(t, err)

	byElement := make(map[string]domain.Member, len(members))
	for _, m := range members {
		byElement[m.Element] = m
	}
	require.Contains(t, byElement, "leased")
	require.Contains(t, byElement, "fresh")
	assert.WithinDuration(t, leasedTill, byElement["leased"].AvailableAt, time.Millisecond,
		"the surviving lease must keep its exact instant across rotation")
	assert.True(t, byElement["fresh"].Available(time.Now()))
}
