package cacheports

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by store lookups for keys that were never written.
var ErrNotFound = errors.New("not found")

// CachedTransformation is one memoized input → output mapping.
type CachedTransformation struct {
	Input     string
	Output    string
	CreatedAt time.Time
}

// Payload is one stored build result keyed by its content identifier.
type Payload struct {
	Identifier string
	Output     string
	CreatedAt  time.Time
}

// TransformationStore persists memoized transformations.
type TransformationStore interface {
	GetTransformation(ctx context.Context, input string) (CachedTransformation, error)
	// PutTransformation inserts t unless its input is already stored and
	// returns the stored record either way.
	PutTransformation(ctx context.Context, t CachedTransformation) (CachedTransformation, error)
}

// PayloadStore persists content-addressed payloads.
type PayloadStore interface {
	GetPayload(ctx context.Context, identifier string) (Payload, error)
	// PutPayload inserts p unless its identifier is already stored. It returns
	// the stored record and whether this call created it.
	PutPayload(ctx context.Context, p Payload) (Payload, bool, error)
}
