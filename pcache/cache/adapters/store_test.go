package adapters

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"github.com/ZanzyTHEbar/payload-cache/pcache/config"
	"github.com/ZanzyTHEbar/payload-cache/pcache/storage/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storePair struct {
	transformations ports.TransformationStore
	payloads        ports.PayloadStore
}

func newSQLStores(t *testing.T) storePair {
	t.Helper()
	dm, err := database.NewDBManager(context.Background(), database.NewConfig(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + filepath.Join(t.TempDir(), "cache.db"),
	}), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })
	return storePair{
		transformations: NewSQLTransformationStore(dm),
		payloads:        NewSQLPayloadStore(dm),
	}
}

func newMemoryStores(t *testing.T) storePair {
	return storePair{
		transformations: NewMemoryTransformationStore(),
		payloads:        NewMemoryPayloadStore(),
	}
}

// Both adapters must honour the same contract.
var storeFactories = map[string]func(t *testing.T) storePair{
	"sql":    newSQLStores,
	"memory": newMemoryStores,
}

func TestTransformationStoreContract(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			stores := factory(t)
			ctx := context.Background()

			_, err := stores.transformations.GetTransformation(ctx, "hello")
			assert.ErrorIs(t, err, ports.ErrNotFound)

			created := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
			stored, err := stores.transformations.PutTransformation(ctx, ports.CachedTransformation{
				Input: "hello", Output: "HELLO", CreatedAt: created,
			})
			require.NoError(t, err)
			assert.Equal(t, "HELLO", stored.Output)
			assert.True(t, created.Equal(stored.CreatedAt))

			// Conflicting put returns the first record untouched
			stored, err = stores.transformations.PutTransformation(ctx, ports.CachedTransformation{
				Input: "hello", Output: "something else",
			})
			require.NoError(t, err)
			assert.Equal(t, "HELLO", stored.Output)

			got, err := stores.transformations.GetTransformation(ctx, "hello")
			require.NoError(t, err)
			assert.Equal(t, "HELLO", got.Output)
		})
	}
}

func TestPayloadStoreContract(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			stores := factory(t)
			ctx := context.Background()

			_, err := stores.payloads.GetPayload(ctx, "nonexistent_identifier")
			assert.ErrorIs(t, err, ports.ErrNotFound)

			stored, created, err := stores.payloads.PutPayload(ctx, ports.Payload{Identifier: "abc", Output: "A, B"})
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, "A, B", stored.Output)
			assert.False(t, stored.CreatedAt.IsZero())

			stored, created, err = stores.payloads.PutPayload(ctx, ports.Payload{Identifier: "abc", Output: "C, D"})
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, "A, B", stored.Output)

			got, err := stores.payloads.GetPayload(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, "A, B", got.Output)
		})
	}
}

func TestConcurrentPutsConverge(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			stores := factory(t)
			ctx := context.Background()

			const writers = 8
			var wg sync.WaitGroup
			results := make([]ports.Payload, writers)
			createdCount := make([]bool, writers)
			errs := make([]error, writers)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], createdCount[i], errs[i] = stores.payloads.PutPayload(ctx, ports.Payload{
						Identifier: "same", Output: "SAME",
					})
				}(i)
			}
			wg.Wait()

			creators := 0
			for i := 0; i < writers; i++ {
				require.NoError(t, errs[i])
				assert.Equal(t, "SAME", results[i].Output)
				if createdCount[i] {
					creators++
				}
			}
			assert.Equal(t, 1, creators)
		})
	}
}

func TestMemoryStoresRespectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryTransformationStore().GetTransformation(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = NewMemoryPayloadStore().PutPayload(ctx, ports.Payload{Identifier: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreLen(t *testing.T) {
	ctx := context.Background()
	transforms := NewMemoryTransformationStore()
	payloads := NewMemoryPayloadStore()

	_, err := transforms.PutTransformation(ctx, ports.CachedTransformation{Input: "a", Output: "A"})
	require.NoError(t, err)
	_, err = transforms.PutTransformation(ctx, ports.CachedTransformation{Input: "a", Output: "A"})
	require.NoError(t, err)
	_, _, err = payloads.PutPayload(ctx, ports.Payload{Identifier: "id", Output: "A"})
	require.NoError(t, err)

	assert.Equal(t, 1, transforms.Len())
	assert.Equal(t, 1, payloads.Len())
}
