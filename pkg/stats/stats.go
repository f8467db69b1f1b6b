// Package stats implements the unroller's statistics sink: two fixed
// labeled counters plus one dynamically-labeled counter per give-up reason
// (spec.md §6). Grounded on bnb-chain-bsc's metrics package, which wraps
// the same rcrowley/go-metrics registry this package uses directly.
package stats

import "github.com/rcrowley/go-metrics"

const (
	labelUnrolledLoops = "Optimizations, Unrolled Loops"
	labelUnrolledIters = "Optimizations, Unrolled Iterations"
	giveUpPrefix       = "Unrolling gave up, "
)

// Sink is the statistics sink the pass driver increments as it runs.
type Sink struct {
	registry metrics.Registry
}

// New creates an empty Sink backed by a fresh metrics registry.
func New() *Sink {
	return &Sink{registry: metrics.NewRegistry()}
}

func (s *Sink) counter(label string) metrics.Counter {
	existing := s.registry.Get(label)
	if c, ok := existing.(metrics.Counter); ok {
		return c
	}
	return metrics.GetOrRegisterCounter(label, s.registry)
}

// IncLoop increments "Optimizations, Unrolled Loops" by one, called once
// per loop that successfully unrolls.
func (s *Sink) IncLoop() {
	s.counter(labelUnrolledLoops).Inc(1)
}

// IncIters increments "Optimizations, Unrolled Iterations" by n. The
// unroller calls it with n = 1 for each iteration it emits.
func (s *Sink) IncIters(n int) {
	s.counter(labelUnrolledIters).Inc(int64(n))
}

// GiveUp increments the dynamically-labeled "Unrolling gave up, <reason>"
// counter by one.
func (s *Sink) GiveUp(reason string) {
	s.counter(giveUpPrefix + reason).Inc(1)
}

// Loops returns the current value of the unrolled-loops counter.
func (s *Sink) Loops() int64 {
	return s.counter(labelUnrolledLoops).Count()
}

// Iters returns the current value of the unrolled-iterations counter.
func (s *Sink) Iters() int64 {
	return s.counter(labelUnrolledIters).Count()
}

// GiveUpCount returns the current value of the given give-up reason's
// counter.
func (s *Sink) GiveUpCount(reason string) int64 {
	return s.counter(giveUpPrefix + reason).Count()
}

// Snapshot returns every counter currently registered, label -> value, for
// CLI --stats dumps.
func (s *Sink) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	s.registry.Each(func(name string, v interface{}) {
		if c, ok := v.(metrics.Counter); ok {
			out[name] = c.Count()
		}
	})
	return out
}
