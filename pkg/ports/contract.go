package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/paddock/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPoolStoreContract runs a suite of tests to verify that a PoolStore
// implementation adheres to the defined interface contract.
//
// newStore must return an empty, isolated pool; it is called once per
// subtest so membership from one subtest cannot leak into another.
func RunPoolStoreContract(t *testing.T, newStore func(t *testing.T) PoolStore) {
	ctx := context.Background()
	lease := time.Hour

	t.Run("Add Is Idempotent", func(t *testing.T) {
		store := newStore(t)

		added, err := store.Add(ctx, "alpha")
		require.NoError(t, err)
		assert.True(t, added, "first Add should insert")

		// Lease the member so a score-clobbering Add would be observable.
		member, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		require.Equal(t, "alpha", member)

		added, err = store.Add(ctx, "alpha")
		require.NoError(t, err)
		assert.False(t, added, "second Add should report existing member")

		// The in-flight lease must survive the duplicate Add.
		_, err = store.Choose(ctx, lease)
		assert.ErrorIs(t, err, domain.ErrNoItemAvailable)

		size, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), size)
	})

	t.Run("Choose Locks Until Exhaustion", func(t *testing.T) {
		store := newStore(t)
		for _, m := range []string{"alpha", "beta"} {
			_, err := store.Add(ctx, m)
			require.NoError(t, err)
		}

		first, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		second, err := store.Choose(ctx, lease)
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "two Choose calls must not hand out the same member")
		assert.ElementsMatch(t, []string{"alpha", "beta"}, []string{first, second})

		_, err = store.Choose(ctx, lease)
		assert.ErrorIs(t, err, domain.ErrNoItemAvailable)

		// Selection is not removal.
		size, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), size)
	})

	t.Run("Choose On Empty Pool", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Choose(ctx, lease)
		assert.ErrorIs(t, err, domain.ErrNoItemAvailable)
	})

	t.Run("Remove Reports Presence", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "alpha")
		require.NoError(t, err)

		removed, err := store.Remove(ctx, "alpha")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.Remove(ctx, "alpha")
		require.NoError(t, err)
		assert.False(t, removed, "removing a non-member should report false")
	})

	t.Run("Replace Readmits Non-Member", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "alpha")
		require.NoError(t, err)
		_, err = store.Remove(ctx, "alpha")
		require.NoError(t, err)

		err = store.Replace(ctx, "alpha", time.Time{})
		require.NoError(t, err)

		member, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		assert.Equal(t, "alpha", member)
	})

	t.Run("Replace Defers Availability", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "alpha")
		require.NoError(t, err)

		err = store.Replace(ctx, "alpha", time.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = store.Choose(ctx, lease)
		assert.ErrorIs(t, err, domain.ErrNoItemAvailable)
	})

	t.Run("Reset Replaces Membership", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "old")
		require.NoError(t, err)

		count, err := store.Reset(ctx, []string{"alpha", "beta"}, 500, false)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		members, err := store.Members(ctx)
		require.NoError(t, err)
		elements := make([]string, 0, len(members))
		for _, m := range members {
			elements = append(elements, m.Element)
			assert.True(t, m.Available(time.Now()), "rotated-in member should be immediately available")
		}
		assert.ElementsMatch(t, []string{"alpha", "beta"}, elements)
	})

	t.Run("Reset Deduplicates Input", func(t *testing.T) {
		store := newStore(t)

		count, err := store.Reset(ctx, []string{"alpha", "alpha", "beta"}, 500, false)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Reset Empty Clears Pool", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "alpha")
		require.NoError(t, err)

		count, err := store.Reset(ctx, nil, 500, false)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		size, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), size)

		_, err = store.Choose(ctx, lease)
		assert.ErrorIs(t, err, domain.ErrNoItemAvailable)
	})

	t.Run("Reset Preserves Scores", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "leased")
		require.NoError(t, err)
		_, err = store.Add(ctx, "free")
		require.NoError(t, err)
		err = store.Replace(ctx, "leased", time.Now().Add(time.Hour))
		require.NoError(t, err)

		count, err := store.Reset(ctx, []string{"leased", "free", "fresh"}, 500, true)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		// The surviving lease must still hold; the other two are free.
		first, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		second, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"free", "fresh"}, []string{first, second})

		_, err = store.Choose(ctx, lease)
		assert.ErrorIs(t, err, domain.ErrNoItemAvailable)
	})

	t.Run("Reset Without Preservation Clears Leases", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Add(ctx, "leased")
		require.NoError(t, err)
		err = store.Replace(ctx, "leased", time.Now().Add(time.Hour))
		require.NoError(t, err)

		count, err := store.Reset(ctx, []string{"leased", "fresh"}, 500, false)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		first, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		second, err := store.Choose(ctx, lease)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"leased", "fresh"}, []string{first, second})
	})
}
