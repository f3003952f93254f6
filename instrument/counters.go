// Package instrument holds the per-session instrumentation state: step
// counters written by the physics world and the named timing records of
// the profiler. Both are owned by the session and passed explicitly to
// whoever writes or reads them.
package instrument

import "sync/atomic"

// Counters are the scalar statistics of one step.
//
// The physics world may update them from several worker goroutines, so every
// field is atomic. The frame driver resets them before each step and the
// overlay reads them through Snapshot.
type Counters struct {
	AllocCalls    atomic.Uint32
	MaxAllocCalls atomic.Uint32

	BroadPhasePairs atomic.Uint32

	GJKCalls    atomic.Uint32
	GJKIters    atomic.Uint32
	GJKMaxIters atomic.Uint32

	ConvexCalls     atomic.Uint32
	ConvexCacheHits atomic.Uint32

	// ConvexCache mirrors the session toggle into the narrow phase.
	ConvexCache atomic.Bool
}

// Stats is a plain copy of Counters.
type Stats struct {
	AllocCalls      uint32
	MaxAllocCalls   uint32
	BroadPhasePairs uint32
	GJKCalls        uint32
	GJKIters        uint32
	GJKMaxIters     uint32
	ConvexCalls     uint32
	ConvexCacheHits uint32
	ConvexCache     bool
}

// Reset zeroes the per-step counters and mirrors the convex cache toggle.
// MaxAllocCalls is a running maximum over the session and survives.
func (c *Counters) Reset(convexCache bool) {
	c.AllocCalls.Store(0)
	c.BroadPhasePairs.Store(0)
	c.GJKCalls.Store(0)
	c.GJKIters.Store(0)
	c.GJKMaxIters.Store(0)
	c.ConvexCalls.Store(0)
	c.ConvexCacheHits.Store(0)
	c.ConvexCache.Store(convexCache)
}

// AddAlloc records one allocation made by the world during the step.
func (c *Counters) AddAlloc() {
	storeMax(&c.MaxAllocCalls, c.AllocCalls.Add(1))
}

// AddBroadPhasePair records one candidate pair emitted by the broad phase.
func (c *Counters) AddBroadPhasePair() {
	c.BroadPhasePairs.Add(1)
}

// AddGJK records one GJK query that ran iters iterations.
func (c *Counters) AddGJK(iters uint32) {
	c.GJKCalls.Add(1)
	c.GJKIters.Add(iters)
	storeMax(&c.GJKMaxIters, iters)
}

// AddConvex records one convex-convex narrow phase call, hit tells whether
// the cached separating axis answered it.
func (c *Counters) AddConvex(hit bool) {
	c.ConvexCalls.Add(1)
	if hit {
		c.ConvexCacheHits.Add(1)
	}
}

// Snapshot copies the counters.
func (c *Counters) Snapshot() Stats {
	return Stats{
		AllocCalls:      c.AllocCalls.Load(),
		MaxAllocCalls:   c.MaxAllocCalls.Load(),
		BroadPhasePairs: c.BroadPhasePairs.Load(),
		GJKCalls:        c.GJKCalls.Load(),
		GJKIters:        c.GJKIters.Load(),
		GJKMaxIters:     c.GJKMaxIters.Load(),
		ConvexCalls:     c.ConvexCalls.Load(),
		ConvexCacheHits: c.ConvexCacheHits.Load(),
		ConvexCache:     c.ConvexCache.Load(),
	}
}

// AvgGJKIters is the average number of GJK iterations per call, 0 without calls.
func (s Stats) AvgGJKIters() float64 {
	if s.GJKCalls == 0 {
		return 0
	}
	return float64(s.GJKIters) / float64(s.GJKCalls)
}

// ConvexCacheHitRatio is the share of convex calls answered by the cache, 0 without calls.
func (s Stats) ConvexCacheHitRatio() float64 {
	if s.ConvexCalls == 0 {
		return 0
	}
	return float64(s.ConvexCacheHits) / float64(s.ConvexCalls)
}

func storeMax(dst *atomic.Uint32, v uint32) {
	for {
		cur := dst.Load()
		if v <= cur || dst.CompareAndSwap(cur, v) {
			return
		}
	}
}
