// Package timing measures operation latencies with HDR histograms and
// produces the per-operation summaries the run report is built from.
package timing

import (
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

const (
	// sigFigs is the number of significant figures tracked by each
	// histogram; 1 keeps memory per histogram small.
	sigFigs = 1
	// minLatency is the lowest trackable latency. Values below it are
	// recorded as minLatency.
	minLatency = 100 * time.Microsecond
	// maxLatency is the highest trackable latency. Values above it are
	// recorded as maxLatency.
	maxLatency = 100 * time.Second
)

// Recorder accumulates latencies per operation name. It is safe for
// concurrent use, and preserves first-recorded order for reporting.
type Recorder struct {
	mu    sync.Mutex
	order []string
	hists map[string]*hdrhistogram.Histogram
	sums  map[string]time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		hists: make(map[string]*hdrhistogram.Histogram),
		sums:  make(map[string]time.Duration),
	}
}

// Record adds one measurement for op. Out-of-range values are clamped to the
// trackable range rather than dropped.
func (r *Recorder) Record(op string, elapsed time.Duration) {
	if elapsed < minLatency {
		elapsed = minLatency
	} else if elapsed > maxLatency {
		elapsed = maxLatency
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hists[op]
	if !ok {
		h = hdrhistogram.New(minLatency.Nanoseconds(), maxLatency.Nanoseconds(), sigFigs)
		r.hists[op] = h
		r.order = append(r.order, op)
	}
	_ = h.RecordValue(elapsed.Nanoseconds())
	r.sums[op] += elapsed
}

// Time runs fn, records its wall time under op, and returns fn's error.
// Failed operations are recorded too; a slow failure is still a data point.
func (r *Recorder) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.Record(op, time.Since(start))
	return err
}

// Summary describes the recorded latencies for one operation.
type Summary struct {
	Op    string
	Count int64
	Min   time.Duration
	Mean  time.Duration
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
	Max   time.Duration
	Total time.Duration
}

// Summary returns the summary for a single operation, and whether anything
// was recorded under that name.
func (r *Recorder) Summary(op string) (Summary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hists[op]
	if !ok {
		return Summary{}, false
	}
	return r.summaryLocked(op, h), true
}

// Summaries returns one summary per operation, in the order operations were
// first recorded.
func (r *Recorder) Summaries() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Summary, 0, len(r.order))
	for _, op := range r.order {
		out = append(out, r.summaryLocked(op, r.hists[op]))
	}
	return out
}

func (r *Recorder) summaryLocked(op string, h *hdrhistogram.Histogram) Summary {
	return Summary{
		Op:    op,
		Count: h.TotalCount(),
		Min:   time.Duration(h.Min()),
		Mean:  time.Duration(h.Mean()),
		P50:   time.Duration(h.ValueAtQuantile(50)),
		P95:   time.Duration(h.ValueAtQuantile(95)),
		P99:   time.Duration(h.ValueAtQuantile(99)),
		Max:   time.Duration(h.Max()),
		Total: r.sums[op],
	}
}
