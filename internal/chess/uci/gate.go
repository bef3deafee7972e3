package uci

import (
	"context"
	"runtime"
	"sync"
)

type GateConfig struct {
	// PerEngineCapacity bounds concurrent processes per engine path.
	// Zero picks a default from the CPU count.
	PerEngineCapacity int
}

// Gate bounds how many engine processes run at once for each engine path.
// Each analysis still spawns its own process; the gate only meters them.
type Gate struct {
	capacity int

	mu      sync.Mutex
	buckets map[string]chan struct{}
}

func NewGate(cfg GateConfig) *Gate {
	capacity := cfg.PerEngineCapacity
	if capacity <= 0 {
		capacity = defaultPerEngineCapacity()
	}
	return &Gate{
		capacity: capacity,
		buckets:  make(map[string]chan struct{}),
	}
}

// Acquire blocks until a slot for enginePath is free or ctx is done. The
// returned release func must be called exactly once.
func (g *Gate) Acquire(ctx context.Context, enginePath string) (func(), error) {
	bucket := g.getBucket(enginePath)
	select {
	case bucket <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-bucket })
	}, nil
}

func (g *Gate) Capacity() int { return g.capacity }

// InUse reports the slots currently held for enginePath.
func (g *Gate) InUse(enginePath string) int {
	return len(g.getBucket(enginePath))
}

func (g *Gate) getBucket(key string) chan struct{} {
	g.mu.Lock()
	bucket, ok := g.buckets[key]
	if !ok {
		bucket = make(chan struct{}, g.capacity)
		g.buckets[key] = bucket
	}
	g.mu.Unlock()
	return bucket
}

func defaultPerEngineCapacity() int {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		return 2
	}
	if cpu > 4 {
		return 4
	}
	return cpu
}
