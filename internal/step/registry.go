package step

import (
	"fmt"
	"sync"
)

// Func transforms the current context into the next one. Implementations
// must be pure: no retained references, no side effects.
type Func func(ctx *Context, params Params) (*Context, error)

type entry struct {
	fn       Func
	terminal bool
}

// Registry maps method names to step functions. The method set is open:
// callers may register additional traversal primitives without touching
// the fold driver.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]entry)}
}

// Register adds a non-terminal step function under the given method name.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = entry{fn: fn}
}

// RegisterTerminal adds a step function that produces a scalar and is only
// valid as the last step of a sequence.
func (r *Registry) RegisterTerminal(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = entry{fn: fn, terminal: true}
}

// Get returns the step function for a method name.
func (r *Registry) Get(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	return e.fn, nil
}

// Known reports whether a method name is registered.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.methods[name]
	return ok
}

// Terminal reports whether a registered method produces a scalar.
func (r *Registry) Terminal(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.methods[name].terminal
}

// DefaultRegistry creates a registry with all built-in step methods.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("find_text", findText)
	r.Register("parent", parentOf)
	r.Register("find_next_sibling", findNextSibling)
	r.Register("find_prev_sibling", findPrevSibling)
	r.Register("select", selectCSS)
	r.RegisterTerminal("get_attribute", getAttribute)
	r.RegisterTerminal("get_text", getText)
	return r
}
