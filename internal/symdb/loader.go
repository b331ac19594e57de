package symdb

import (
	"context"
	"sync"
)

// Loader wraps a Provider with process-wide load-once-per-path caching.
// Both successes and failures are cached: a module path is loaded at most
// once per run, and concurrent loads of the same path share one call.
type Loader struct {
	provider Provider

	mu      sync.Mutex
	entries map[string]*loadEntry
}

type loadEntry struct {
	done chan struct{}
	mod  Module
	err  error
}

// NewLoader creates a Loader over provider.
func NewLoader(provider Provider) *Loader {
	return &Loader{
		provider: provider,
		entries:  make(map[string]*loadEntry),
	}
}

// Load resolves a module path, consulting the cache first. The first caller
// for a path performs the load; concurrent callers block until it finishes
// and share the result.
func (l *Loader) Load(ctx context.Context, modulePath string) (Module, error) {
	l.mu.Lock()
	if e, ok := l.entries[modulePath]; ok {
		l.mu.Unlock()
		select {
		case <-e.done:
			return e.mod, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &loadEntry{done: make(chan struct{})}
	l.entries[modulePath] = e
	l.mu.Unlock()

	e.mod, e.err = l.provider.Load(ctx, modulePath)
	close(e.done)
	return e.mod, e.err
}
