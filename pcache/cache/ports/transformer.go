package cacheports

import "context"

// Transformer is the pure, deterministic per-element computation the cache
// memoizes. Implementations must return the same output for the same input.
type Transformer interface {
	Transform(ctx context.Context, input string) (string, error)
}
