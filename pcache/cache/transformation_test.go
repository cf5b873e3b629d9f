package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/payload-cache/pcache/cache/adapters"
	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"github.com/ZanzyTHEbar/payload-cache/pcache/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTransformer for testing
type MockTransformer struct {
	mock.Mock
}

func (m *MockTransformer) Transform(ctx context.Context, input string) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// failingTransformationStore fails every call with err.
type failingTransformationStore struct {
	err error
}

func (s failingTransformationStore) GetTransformation(context.Context, string) (ports.CachedTransformation, error) {
	return ports.CachedTransformation{}, s.err
}

func (s failingTransformationStore) PutTransformation(context.Context, ports.CachedTransformation) (ports.CachedTransformation, error) {
	return ports.CachedTransformation{}, s.err
}

// countingTransformer uppercases and counts calls per input.
type countingTransformer struct {
	mu    sync.Mutex
	calls map[string]int
	total atomic.Int64
}

func newCountingTransformer() *countingTransformer {
	return &countingTransformer{calls: make(map[string]int)}
}

func (c *countingTransformer) Transform(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	c.calls[input]++
	c.mu.Unlock()
	c.total.Add(1)
	return transform.Uppercase{}.Transform(ctx, input)
}

func (c *countingTransformer) callsFor(input string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[input]
}

// blockingTransformer holds every call until release is closed or the call's
// context ends.
type blockingTransformer struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int64
}

func newBlockingTransformer() *blockingTransformer {
	return &blockingTransformer{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingTransformer) Transform(ctx context.Context, input string) (string, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return transform.Uppercase{}.Transform(ctx, input)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type computeResult struct {
	output string
	err    error
}

func TestNewTransformationCacheRequiresDependencies(t *testing.T) {
	_, err := NewTransformationCache(nil, transform.Uppercase{})
	assert.Error(t, err)

	_, err = NewTransformationCache(adapters.NewMemoryTransformationStore(), nil)
	assert.Error(t, err)
}

func TestGetOrComputeComputesOnceAndMemoizes(t *testing.T) {
	ctx := context.Background()
	store := adapters.NewMemoryTransformationStore()
	transformer := new(MockTransformer)
	transformer.On("Transform", mock.Anything, "hello").Return("HELLO", nil).Once()

	mc := NewMetricsCollector()
	c, err := NewTransformationCache(store, transformer, WithCacheMetrics(mc))
	require.NoError(t, err)

	first, err := c.GetOrCompute(ctx, "hello")
	require.NoError(t, err)
	second, err := c.GetOrCompute(ctx, "hello")
	require.NoError(t, err)

	assert.Equal(t, "HELLO", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
	transformer.AssertExpectations(t)

	snap := mc.Snapshot()
	assert.Equal(t, int64(1), snap.TransformMisses)
	assert.Equal(t, int64(1), snap.TransformHits)
}

func TestGetOrComputeEmptyInput(t *testing.T) {
	store := adapters.NewMemoryTransformationStore()
	c, err := NewTransformationCache(store, transform.Uppercase{})
	require.NoError(t, err)

	got, err := c.GetOrCompute(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "", got)
	assert.Equal(t, 1, store.Len())
}

func TestGetOrComputeReturnsStoredValueOverRecomputation(t *testing.T) {
	ctx := context.Background()
	store := adapters.NewMemoryTransformationStore()
	_, err := store.PutTransformation(ctx, ports.CachedTransformation{Input: "x", Output: "precomputed"})
	require.NoError(t, err)

	transformer := new(MockTransformer)
	c, err := NewTransformationCache(store, transformer)
	require.NoError(t, err)

	got, err := c.GetOrCompute(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "precomputed", got)
	transformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything)
}

func TestGetOrComputeConcurrentSameKey(t *testing.T) {
	store := adapters.NewMemoryTransformationStore()
	transformer := newCountingTransformer()
	c, err := NewTransformationCache(store, transformer)
	require.NoError(t, err)

	const callers = 32
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrCompute(context.Background(), "shared")
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "SHARED", results[i])
	}
	assert.Equal(t, 1, transformer.callsFor("shared"))
	assert.Equal(t, 1, store.Len())
}

func TestGetOrComputePropagatesStorageErrors(t *testing.T) {
	diskErr := errors.New("disk I/O error")
	c, err := NewTransformationCache(failingTransformationStore{err: diskErr}, transform.Uppercase{})
	require.NoError(t, err)

	_, err = c.GetOrCompute(context.Background(), "hello")
	require.Error(t, err)

	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "get transformation", se.Op)
	assert.ErrorIs(t, err, diskErr)
}

func TestGetOrComputePropagatesTransformErrors(t *testing.T) {
	store := adapters.NewMemoryTransformationStore()
	boom := errors.New("upstream unavailable")
	transformer := new(MockTransformer)
	transformer.On("Transform", mock.Anything, "hello").Return("", boom)

	c, err := NewTransformationCache(store, transformer)
	require.NoError(t, err)

	_, err = c.GetOrCompute(context.Background(), "hello")
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Len())
}

func TestGetOrComputeCancelledCallerDoesNotFailOthers(t *testing.T) {
	store := adapters.NewMemoryTransformationStore()
	transformer := newBlockingTransformer()
	c, err := NewTransformationCache(store, transformer)
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	doneA := make(chan computeResult, 1)
	go func() {
		out, err := c.GetOrCompute(ctxA, "shared")
		doneA <- computeResult{out, err}
	}()
	<-transformer.entered

	doneB := make(chan computeResult, 1)
	go func() {
		out, err := c.GetOrCompute(context.Background(), "shared")
		doneB <- computeResult{out, err}
	}()
	// Give B time to join the in-flight computation.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case res := <-doneA:
		assert.ErrorIs(t, res.err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(transformer.release)
	select {
	case res := <-doneB:
		require.NoError(t, res.err)
		assert.Equal(t, "SHARED", res.output)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller never finished")
	}

	assert.Equal(t, int64(1), transformer.calls.Load())
	assert.Equal(t, 1, store.Len())
}
