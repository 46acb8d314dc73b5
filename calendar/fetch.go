package calendar

import "sync/atomic"

// FetchTracker hands out a generation number per fetch so that only the
// latest navigation may publish its result.
type FetchTracker struct {
	gen atomic.Uint64
}

// Begin starts a new fetch and returns its generation. Earlier generations
// become stale.
func (t *FetchTracker) Begin() uint64 {
	return t.gen.Add(1)
}

// Current reports whether gen is still the latest fetch.
func (t *FetchTracker) Current(gen uint64) bool {
	return gen == t.gen.Load()
}
