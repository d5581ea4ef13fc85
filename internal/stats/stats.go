// Package stats keeps a rolling window of model-call latencies, broken down
// by operation (page extraction vs. captioning).
package stats

import (
	"sort"
	"sync"
	"time"
)

// OpExtract and OpCaption are the operation labels the vision client records.
const (
	OpExtract = "extract"
	OpCaption = "caption"
)

type sample struct {
	at     time.Time
	ms     int64
	op     string
	failed bool
}

// Snapshot is a point-in-time aggregate for one operation label.
type Snapshot struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Recorder tracks recent call latencies within a rolling window.
type Recorder struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewRecorder(window time.Duration) *Recorder {
	if window <= 0 {
		window = time.Hour
	}
	return &Recorder{
		samples: make([]sample, 0, 256),
		window:  window,
	}
}

// Record adds one call's duration under the given operation label.
func (r *Recorder) Record(op string, d time.Duration, failed bool) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)
	r.samples = append(r.samples, sample{at: now, ms: ms, op: op, failed: failed})
}

// Snapshot aggregates the current window per operation label, plus an "all"
// entry covering everything.
func (r *Recorder) Snapshot() map[string]Snapshot {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(now)

	byOp := map[string][]sample{}
	for _, s := range r.samples {
		byOp[s.op] = append(byOp[s.op], s)
		byOp["all"] = append(byOp["all"], s)
	}

	out := make(map[string]Snapshot, len(byOp))
	for op, ss := range byOp {
		out[op] = aggregate(ss)
	}
	return out
}

func (r *Recorder) pruneLocked(now time.Time) {
	cutoff := now.Add(-r.window)
	keep := r.samples[:0]
	for _, s := range r.samples {
		if !s.at.Before(cutoff) {
			keep = append(keep, s)
		}
	}
	r.samples = keep
}

func aggregate(ss []sample) Snapshot {
	if len(ss) == 0 {
		return Snapshot{}
	}
	values := make([]int64, 0, len(ss))
	var sum int64
	failed := 0
	for _, s := range ss {
		values = append(values, s.ms)
		sum += s.ms
		if s.failed {
			failed++
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return Snapshot{
		Count:  len(values),
		Failed: failed,
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  percentile(values, 50),
		P95Ms:  percentile(values, 95),
		P99Ms:  percentile(values, 99),
	}
}

// percentile linearly interpolates between the two nearest ranks of a sorted
// slice.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	return float64(sorted[lower]) + (float64(sorted[upper])-float64(sorted[lower]))*weight
}
