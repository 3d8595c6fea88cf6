package tracker

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metric names, stable keys for the text endpoint.
const (
	MetricToolCalls      = "tool_calls"
	MetricLLMCalls       = "llm_calls"
	MetricLLMErrors      = "llm_errors"
	MetricRoundsResolved = "rounds_resolved"
	MetricRoundsFailed   = "rounds_failed"
	MetricSnapshotExports = "snapshot_exports"
	MetricSnapshotImports = "snapshot_imports"
)

var metricKeys = []string{
	MetricToolCalls, MetricLLMCalls, MetricLLMErrors,
	MetricRoundsResolved, MetricRoundsFailed,
	MetricSnapshotExports, MetricSnapshotImports,
	"cache_hits", "cache_misses",
}

// registry tracks operational counters across the tracker.
type registry struct {
	counters map[string]*atomic.Int64
}

var reg = func() *registry {
	r := &registry{counters: make(map[string]*atomic.Int64, len(metricKeys))}
	for _, k := range metricKeys {
		r.counters[k] = &atomic.Int64{}
	}
	return r
}()

// Incr increments a named counter. Unknown names are ignored.
func (r *registry) Incr(name string) {
	if c, ok := r.counters[name]; ok {
		c.Add(1)
	}
}

// GetMetrics returns a snapshot of all counters including cache stats.
func GetMetrics() map[string]int64 {
	out := make(map[string]int64, len(metricKeys))
	for _, k := range metricKeys {
		out[k] = reg.counters[k].Load()
	}
	hits, misses := CacheStats()
	out["cache_hits"] = hits
	out["cache_misses"] = misses
	return out
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// IncrToolCalls increments the tool call counter; called by prepserver handlers.
func IncrToolCalls() { reg.Incr(MetricToolCalls) }
