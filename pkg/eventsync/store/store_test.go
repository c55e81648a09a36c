package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventsync/pkg/eventsync/event"
	"github.com/randalmurphal/eventsync/pkg/eventsync/store"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) store.Store

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Count_Missing", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		n, err := s.Count(ctx, event.NameA)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run(name+"/Apply_Sums", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		require.NoError(t, s.ApplyIncrement(ctx, event.NameA, 1))
		require.NoError(t, s.ApplyIncrement(ctx, event.NameA, 4))
		require.NoError(t, s.ApplyIncrement(ctx, event.NameB, 2))

		a, err := s.Count(ctx, event.NameA)
		require.NoError(t, err)
		assert.Equal(t, int64(5), a)

		b, err := s.Count(ctx, event.NameB)
		require.NoError(t, err)
		assert.Equal(t, int64(2), b)
	})

	t.Run(name+"/Apply_Concurrent", func(t *testing.T) {
		s := factory(t)
		defer s.Close()

		const workers = 20
		const perWorker = 25

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer wg.Done()
				n := event.NameA
				if i%2 == 1 {
					n = event.NameB
				}
				for j := 0; j < perWorker; j++ {
					assert.NoError(t, s.ApplyIncrement(ctx, n, 1))
				}
			}(i)
		}
		wg.Wait()

		a, err := s.Count(ctx, event.NameA)
		require.NoError(t, err)
		b, err := s.Count(ctx, event.NameB)
		require.NoError(t, err)
		assert.Equal(t, int64(workers/2*perWorker), a)
		assert.Equal(t, int64(workers/2*perWorker), b)
	})

	t.Run(name+"/Closed", func(t *testing.T) {
		s := factory(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.ApplyIncrement(ctx, event.NameA, 1), store.ErrStoreClosed)
		_, err := s.Count(ctx, event.NameA)
		assert.ErrorIs(t, err, store.ErrStoreClosed)
	})
}

func TestStoreContract(t *testing.T) {
	storeContractTest(t, "Memory", func(t *testing.T) store.Store {
		return store.NewMemoryStore()
	})

	storeContractTest(t, "SQLite", func(t *testing.T) store.Store {
		s, err := store.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return s
	})

	storeContractTest(t, "Delayed", func(t *testing.T) store.Store {
		s, err := store.NewDelayed(store.NewMemoryStore(), store.DelayedConfig{})
		require.NoError(t, err)
		return s
	})
}
