package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/paddock/pkg/adapters/memory"
	"github.com/aretw0/paddock/pkg/domain"
	"github.com/aretw0/paddock/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunPoolStoreContract(t, func(t *testing.T) ports.PoolStore {
		return memory.New()
	})
}

func TestMemoryStore_MutualExclusion(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	const n = 32
	for i := 0; i < n; i++ {
		_, err := store.Add(ctx, string(rune('A'+i)))
		require.NoError(t, err)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		chosen = make(map[string]struct{}, n)
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
			chosen[member] = struct{}{}
		}()
	}
	wg.Wait()

	require.Empty(t, errs, "every caller should have received a member")
	assert.Len(t, chosen, n, "each member must be handed out exactly once")

	_, err := store.Choose(ctx, time.Hour)
	assert.ErrorIs(t, err, domain.ErrNoItemAvailable)
}
