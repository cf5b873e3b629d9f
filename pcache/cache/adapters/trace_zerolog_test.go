package adapters

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestZerologTracerSpanAndEvent(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf).Level(zerolog.DebugLevel))

	ctx, finish := tracer.StartSpan(context.Background(), "build", map[string]any{"pairs": 2})
	tracer.Event(ctx, "transform_hit", map[string]any{"input": "hello"})
	finish(nil)

	out := buf.String()
	assert.Contains(t, out, `"span":"build"`)
	assert.Contains(t, out, `"pairs":2`)
	assert.Contains(t, out, `"event":"transform_hit"`)
	assert.Contains(t, out, `"event":"span_end"`)
}

func TestZerologTracerFinishWithError(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf))

	_, finish := tracer.StartSpan(context.Background(), "lookup", nil)
	finish(errors.New("disk on fire"))

	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "disk on fire")
}

func TestZerologTracerEventOutsideSpan(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewZerologTracer(zerolog.New(&buf).Level(zerolog.DebugLevel))

	tracer.Event(context.Background(), "orphan", nil)
	assert.Contains(t, buf.String(), `"event":"orphan"`)
	assert.NotContains(t, buf.String(), `"span"`)
}
