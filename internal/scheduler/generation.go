package scheduler

import "sync/atomic"

// Generation is a monotonically increasing request counter. Each new query
// takes the next value; a response is stale once its value is no longer
// current.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns it.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current returns the latest generation.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// IsCurrent reports whether gen is still the latest generation.
func (g *Generation) IsCurrent(gen uint64) bool {
	return g.n.Load() == gen
}
