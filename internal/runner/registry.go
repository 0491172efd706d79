package runner

import (
	"sync"
	"time"
)

// Registry holds the live runs of every participant, keyed by run id.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

func (g *Registry) Put(r *Run) {
	g.mu.Lock()
	g.runs[r.ID] = r
	g.mu.Unlock()
}

func (g *Registry) Get(id string) (*Run, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.runs[id]
	return r, ok
}

func (g *Registry) Delete(id string) {
	g.mu.Lock()
	delete(g.runs, id)
	g.mu.Unlock()
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.runs)
}

// Sweep removes runs that have been idle since before cutoff and returns how
// many were removed.
func (g *Registry) Sweep(cutoff time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for id, r := range g.runs {
		if r.LastActive().Before(cutoff) {
			delete(g.runs, id)
			removed++
		}
	}
	return removed
}
