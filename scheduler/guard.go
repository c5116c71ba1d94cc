package scheduler

import (
	"context"
	"sync"
)

// Guard grants single flight execution per job name. Acquire reports false
// when another run holds the job.
type Guard interface {
	Acquire(ctx context.Context, name string) (release func(), acquired bool, err error)
}

// MemoryGuard serializes runs within one process.
type MemoryGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

// NewMemoryGuard constructs a process local guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{running: make(map[string]struct{})}
}

// Acquire implements Guard.
func (g *MemoryGuard) Acquire(_ context.Context, name string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.running[name]; busy {
		return nil, false, nil
	}
	g.running[name] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.running, name)
			g.mu.Unlock()
		})
	}, true, nil
}

var _ Guard = (*MemoryGuard)(nil)
