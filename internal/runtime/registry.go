package runtime

import (
	"context"
	"sync"

	"github.com/optolab/ivctl/pkg/domain"
)

// ActionFunc is the signature of a step handler. It receives the resolved
// step parameters and returns the value stored under capture_as, if any.
type ActionFunc func(ctx context.Context, params map[string]any) (any, error)

// Registry maps action names to handlers. Registration happens once at
// wiring time; execution reads are concurrent-safe.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]ActionFunc)}
}

// Register adds an action handler, overwriting any previous binding.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Names returns the registered action names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	return names
}

// Execute looks up and invokes the handler for name.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.ActionNotFoundError{Action: name}
	}
	return fn(ctx, params)
}
