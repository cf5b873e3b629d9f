// Package cache implements the memoized transformation cache and the
// content-addressed payload builder on top of injected stores.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// TransformationCache memoizes a Transformer in a TransformationStore.
//
// Concurrent misses for the same input inside one process are collapsed with
// singleflight; misses racing across processes converge on the first stored
// row because the store's Put is insert-if-absent.
type TransformationCache struct {
	store       ports.TransformationStore
	transformer ports.Transformer
	metrics     *MetricsCollector
	logger      zerolog.Logger
	now         func() time.Time
	flight      singleflight.Group
}

// TransformationCacheOption configures a TransformationCache.
type TransformationCacheOption func(*TransformationCache)

// WithCacheMetrics records hits and misses in mc.
func WithCacheMetrics(mc *MetricsCollector) TransformationCacheOption {
	return func(c *TransformationCache) { c.metrics = mc }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger zerolog.Logger) TransformationCacheOption {
	return func(c *TransformationCache) { c.logger = logger }
}

// NewTransformationCache creates a cache for transformer backed by store.
func NewTransformationCache(store ports.TransformationStore, transformer ports.Transformer, opts ...TransformationCacheOption) (*TransformationCache, error) {
	if store == nil {
		return nil, fmt.Errorf("transformation store is required")
	}
	if transformer == nil {
		return nil, fmt.Errorf("transformer is required")
	}

	c := &TransformationCache{
		store:       store,
		transformer: transformer,
		metrics:     NewMetricsCollector(),
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetOrCompute returns the stored output for input, computing and storing it
// on first sight.
func (c *TransformationCache) GetOrCompute(ctx context.Context, input string) (string, error) {
	// Fast path, avoids singleflight overhead
	if t, err := c.store.GetTransformation(ctx, input); err == nil {
		c.metrics.RecordTransform(true)
		return t.Output, nil
	} else if !errors.Is(err, ports.ErrNotFound) {
		return "", storageError("get transformation", err)
	}

	// The flight outlives any single caller, so it must not inherit one
	// caller's cancellation. Each caller still stops waiting on its own ctx.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(input, func() (any, error) {
		return c.compute(flightCtx, input)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *TransformationCache) compute(ctx context.Context, input string) (string, error) {
	// Another flight may have stored it between the fast path and now
	if t, err := c.store.GetTransformation(ctx, input); err == nil {
		c.metrics.RecordTransform(true)
		return t.Output, nil
	} else if !errors.Is(err, ports.ErrNotFound) {
		return "", storageError("get transformation", err)
	}

	output, err := c.transformer.Transform(ctx, input)
	if err != nil {
		return "", fmt.Errorf("transform %q: %w", input, err)
	}

	stored, err := c.store.PutTransformation(ctx, ports.CachedTransformation{
		Input:     input,
		Output:    output,
		CreatedAt: c.now().UTC(),
	})
	if err != nil {
		return "", storageError("put transformation", err)
	}

	c.metrics.RecordTransform(false)
	c.logger.Debug().Str("input", input).Msg("Cached new transformation")
	return stored.Output, nil
}
