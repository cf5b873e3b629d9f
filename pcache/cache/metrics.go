package cache

import (
	"errors"
	"sync"
	"time"
)

// MetricsCollector counts cache and payload operations.
type MetricsCollector struct {
	mu sync.RWMutex

	// Transformation cache
	transformHits   int64
	transformMisses int64

	// Payload builder
	builds          int64
	payloadsCreated int64
	payloadsReused  int64
	invalidInputs   int64
	lookups         int64
	lookupMisses    int64
	storageErrors   int64

	// Latency tracking
	buildLatency  time.Duration
	lookupLatency time.Duration
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TransformHits      int64   `json:"transform_hits"`
	TransformMisses    int64   `json:"transform_misses"`
	Builds             int64   `json:"builds"`
	PayloadsCreated    int64   `json:"payloads_created"`
	PayloadsReused     int64   `json:"payloads_reused"`
	InvalidInputs      int64   `json:"invalid_inputs"`
	Lookups            int64   `json:"lookups"`
	LookupMisses       int64   `json:"lookup_misses"`
	StorageErrors      int64   `json:"storage_errors"`
	AvgBuildLatencyMS  float64 `json:"avg_build_latency_ms"`
	AvgLookupLatencyMS float64 `json:"avg_lookup_latency_ms"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{}
}

// RecordTransform records one GetOrCompute outcome.
func (mc *MetricsCollector) RecordTransform(hit bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if hit {
		mc.transformHits++
	} else {
		mc.transformMisses++
	}
}

// RecordBuild records a Build call. created is ignored when err is non-nil.
func (mc *MetricsCollector) RecordBuild(duration time.Duration, created bool, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.builds++
	mc.buildLatency += duration
	switch {
	case err == nil && created:
		mc.payloadsCreated++
	case err == nil:
		mc.payloadsReused++
	case errors.Is(err, ErrInvalidInput):
		mc.invalidInputs++
	default:
		mc.storageErrors++
	}
}

// RecordLookup records a Lookup call.
func (mc *MetricsCollector) RecordLookup(duration time.Duration, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.lookups++
	mc.lookupLatency += duration
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		mc.lookupMisses++
	default:
		mc.storageErrors++
	}
}

// Snapshot returns the current counters.
func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := MetricsSnapshot{
		TransformHits:   mc.transformHits,
		TransformMisses: mc.transformMisses,
		Builds:          mc.builds,
		PayloadsCreated: mc.payloadsCreated,
		PayloadsReused:  mc.payloadsReused,
		InvalidInputs:   mc.invalidInputs,
		Lookups:         mc.lookups,
		LookupMisses:    mc.lookupMisses,
		StorageErrors:   mc.storageErrors,
	}
	if mc.builds > 0 {
		s.AvgBuildLatencyMS = float64(mc.buildLatency.Microseconds()) / float64(mc.builds) / 1000
	}
	if mc.lookups > 0 {
		s.AvgLookupLatencyMS = float64(mc.lookupLatency.Microseconds()) / float64(mc.lookups) / 1000
	}
	return s
}
