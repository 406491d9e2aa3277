package admission

import (
	"sync"
	"time"
)

// Gate decides whether a caller may proceed right now. Admit and Release
// must be paired: every admitted call releases its slot when finished.
type Gate interface {
	// Admit reports whether the caller identified by key may proceed, and
	// reserves an in-flight slot when it may.
	Admit(key string) bool

	// Release frees the in-flight slot reserved by a successful Admit.
	Release(key string)
}

// Config contains gate tuning.
type Config struct {
	// MinInterval is the minimum spacing between admitted calls per key.
	// Default: 1s.
	MinInterval time.Duration

	// MaxInFlight caps concurrent admitted calls per key. Default: 1.
	MaxInFlight int
}

// MemoryGate is the in-memory Gate implementation. Thread-safe; state is
// process-local only.
type MemoryGate struct {
	config  Config
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	inFlight int
	last     time.Time
}

// NewMemoryGate creates a gate with defaults applied.
func NewMemoryGate(cfg Config) *MemoryGate {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	return &MemoryGate{
		config:  cfg,
		entries: make(map[string]*entry),
	}
}

// Admit implements Gate.
func (g *MemoryGate) Admit(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	e, ok := g.entries[key]
	if !ok {
		e = &entry{}
		g.entries[key] = e
	}

	if e.inFlight >= g.config.MaxInFlight || now.Sub(e.last) < g.config.MinInterval {
		return false
	}

	e.inFlight++
	e.last = now
	return true
}

// Release implements Gate.
func (g *MemoryGate) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.entries[key]; ok && e.inFlight > 0 {
		e.inFlight--
	}
}

// Sweep drops entries idle longer than maxIdle and returns how many were
// removed. Run periodically so long-lived processes do not accumulate one
// entry per caller address forever.
func (g *MemoryGate) Sweep(maxIdle time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for key, e := range g.entries {
		if e.inFlight == 0 && e.last.Before(cutoff) {
			delete(g.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked caller keys.
func (g *MemoryGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
