package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	ports "github.com/ZanzyTHEbar/payload-cache/pcache/cache/ports"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
)

// Separator joins interleaved elements into the canonical payload string.
const Separator = ", "

// PayloadBuilder turns two paired lists into a content-addressed payload.
type PayloadBuilder struct {
	transforms  *TransformationCache
	payloads    ports.PayloadStore
	tracer      ports.Tracer
	metrics     *MetricsCollector
	logger      zerolog.Logger
	concurrency int
	now         func() time.Time
}

// PayloadBuilderOption configures a PayloadBuilder.
type PayloadBuilderOption func(*PayloadBuilder)

// WithTracer sets the tracer used for Build and Lookup spans. A nil tracer
// keeps the no-op default.
func WithTracer(t ports.Tracer) PayloadBuilderOption {
	return func(b *PayloadBuilder) {
		if t != nil {
			b.tracer = t
		}
	}
}

// WithBuilderMetrics records builds and lookups in mc.
func WithBuilderMetrics(mc *MetricsCollector) PayloadBuilderOption {
	return func(b *PayloadBuilder) { b.metrics = mc }
}

// WithBuilderLogger sets the logger.
func WithBuilderLogger(logger zerolog.Logger) PayloadBuilderOption {
	return func(b *PayloadBuilder) { b.logger = logger }
}

// WithConcurrency bounds the goroutines transforming one list. Values below
// one mean serial.
func WithConcurrency(n int) PayloadBuilderOption {
	return func(b *PayloadBuilder) { b.concurrency = n }
}

// NewPayloadBuilder creates a builder over transforms and payloads.
func NewPayloadBuilder(transforms *TransformationCache, payloads ports.PayloadStore, opts ...PayloadBuilderOption) (*PayloadBuilder, error) {
	if transforms == nil {
		return nil, fmt.Errorf("transformation cache is required")
	}
	if payloads == nil {
		return nil, fmt.Errorf("payload store is required")
	}

	b := &PayloadBuilder{
		transforms:  transforms,
		payloads:    payloads,
		tracer:      noopTracer{},
		metrics:     NewMetricsCollector(),
		logger:      zerolog.Nop(),
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.concurrency < 1 {
		b.concurrency = 1
	}
	return b, nil
}

// Build transforms both lists through the cache, interleaves and joins the
// results, and stores the joined string under its MD5 identifier. A payload
// already stored under that identifier is left untouched and its identifier
// returned.
func (b *PayloadBuilder) Build(ctx context.Context, list1, list2 []string) (identifier string, err error) {
	start := time.Now()
	created := false
	ctx, finish := b.tracer.StartSpan(ctx, "payload.build", map[string]any{"pairs": len(list1)})
	defer func() {
		finish(err)
		b.metrics.RecordBuild(time.Since(start), created, err)
	}()

	if len(list1) != len(list2) {
		return "", ErrInvalidInput
	}

	t1, err := b.transformAll(ctx, list1)
	if err != nil {
		return "", err
	}
	t2, err := b.transformAll(ctx, list2)
	if err != nil {
		return "", err
	}

	joined := Join(Interleave(t1, t2))
	identifier = Identifier(joined)

	stored, created, err := b.payloads.PutPayload(ctx, ports.Payload{
		Identifier: identifier,
		Output:     joined,
		CreatedAt:  b.now().UTC(),
	})
	if err != nil {
		return "", storageError("put payload", err)
	}

	if created {
		b.logger.Info().Str("identifier", identifier).Int("pairs", len(list1)).Msg("Payload created")
	} else {
		b.tracer.Event(ctx, "payload_reused", map[string]any{"identifier": identifier})
	}
	return stored.Identifier, nil
}

// Lookup returns the joined output stored under identifier.
func (b *PayloadBuilder) Lookup(ctx context.Context, identifier string) (output string, err error) {
	start := time.Now()
	ctx, finish := b.tracer.StartSpan(ctx, "payload.lookup", map[string]any{"identifier": identifier})
	defer func() {
		finish(err)
		b.metrics.RecordLookup(time.Since(start), err)
	}()

	p, err := b.payloads.GetPayload(ctx, identifier)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", storageError("get payload", err)
	}
	return p.Output, nil
}

// Metrics returns the collector shared by the builder.
func (b *PayloadBuilder) Metrics() *MetricsCollector {
	return b.metrics
}

// transformAll maps inputs through the cache keeping positions aligned.
func (b *PayloadBuilder) transformAll(ctx context.Context, inputs []string) ([]string, error) {
	if len(inputs) == 0 {
		return []string{}, nil
	}
	mapper := iter.Mapper[string, string]{MaxGoroutines: b.concurrency}
	return mapper.MapErr(inputs, func(input *string) (string, error) {
		return b.transforms.GetOrCompute(ctx, *input)
	})
}

// Interleave pairs a and b position by position: a[0], b[0], a[1], b[1], …
// Both slices must have the same length.
func Interleave(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for i := range a {
		out = append(out, a[i], b[i])
	}
	return out
}

// Join concatenates parts with Separator.
func Join(parts []string) string {
	return strings.Join(parts, Separator)
}

// Identifier is the lowercase hex MD5 digest of the UTF-8 bytes of joined.
func Identifier(joined string) string {
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])
}

type noopTracer struct{}

func (noopTracer) StartSpan(ctx context.Context, _ string, _ map[string]any) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (noopTracer) Event(context.Context, string, map[string]any) {}
