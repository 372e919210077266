package permission

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownName is returned when a requirement references an unregistered name.
var ErrUnknownName = errors.New("permission: unknown name")

// Kind distinguishes role names from ability names in a Registry.
type Kind int

const (
	// KindRole registers role names.
	KindRole Kind = iota
	// KindAbility registers ability names.
	KindAbility
)

func (k Kind) String() string {
	if k == KindAbility {
		return "ability"
	}
	return "role"
}

// Registry is the catalog of role and ability names that routes may require.
type Registry struct {
	mu     sync.RWMutex
	names  [2]map[string]struct{}
	frozen bool
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		names: [2]map[string]struct{}{
			make(map[string]struct{}),
			make(map[string]struct{}),
		},
	}
}

// Register adds names of the given kind. Must be called before [Registry.Freeze].
func (r *Registry) Register(kind Kind, names ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("registry frozen")
	}
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("%s name cannot be empty", kind)
		}
		r.names[kind][name] = struct{}{}
	}
	return nil
}

// Has reports whether name is registered as kind.
func (r *Registry) Has(kind Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[kind][name]
	return ok
}

// Freeze prevents further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered names of kind.
func (r *Registry) Count(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names[kind])
}

// Check returns ErrUnknownName for the first name in req not registered as kind.
func (r *Registry) Check(kind Kind, req Requirement) error {
	for _, name := range req.Names() {
		if !r.Has(kind, name) {
			return fmt.Errorf("%w: %s %q", ErrUnknownName, kind, name)
		}
	}
	return nil
}
