// Package script holds the hooks registered by content code. Emitters define
// the hook interfaces they call and iterate them with ForEach.
package script

import (
	"sync"
)

type Registry struct {
	mu    sync.RWMutex
	hooks []any
	named map[string][]any
}

func NewRegistry() *Registry {
	return &Registry{named: make(map[string][]any)}
}

// Register adds a hook that is offered to every ForEach call whose interface
// it implements.
func (r *Registry) Register(hook any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// RegisterNamed adds a hook bound to a script name, such as the script name
// of a world state template or a game object template.
func (r *Registry) RegisterNamed(name string, hook any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = append(r.named[name], hook)
}

func (r *Registry) snapshot(name string, named bool) []any {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.hooks
	if named {
		src = r.named[name]
	}
	out := make([]any, len(src))
	copy(out, src)
	return out
}

// ForEach calls fn for every registered hook implementing T. A nil registry
// has no hooks.
func ForEach[T any](r *Registry, fn func(T)) {
	for _, h := range r.snapshot("", false) {
		if t, ok := h.(T); ok {
			fn(t)
		}
	}
}

// ForEachNamed calls fn for every hook registered under name implementing T.
func ForEachNamed[T any](r *Registry, name string, fn func(T)) {
	if name == "" {
		return
	}
	for _, h := range r.snapshot(name, true) {
		if t, ok := h.(T); ok {
			fn(t)
		}
	}
}
