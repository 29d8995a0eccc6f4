package circuit

import (
	"errors"
	"strings"
	"sync"

	"github.com/aponysus/reprise/internal"
)

// Registry is a thread-safe name → Breaker map.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Breaker
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Breaker)}
}

// Register registers a breaker with validation.
func (r *Registry) Register(name string, b Breaker) error {
	if r == nil {
		return errors.New("registry is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("breaker name cannot be empty")
	}
	if internal.IsTypedNil(b) {
		return errors.New("breaker cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.m == nil {
		r.m = make(map[string]Breaker)
	}
	r.m[name] = b
	return nil
}

// MustRegister registers a breaker and panics on error.
func (r *Registry) MustRegister(name string, b Breaker) {
	if err := r.Register(name, b); err != nil {
		panic("circuit.Registry.MustRegister: " + err.Error())
	}
}

func (r *Registry) Get(name string) (Breaker, bool) {
	if r == nil {
		return nil, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}

	r.mu.RLock()
	b, ok := r.m[name]
	r.mu.RUnlock()
	return b, ok && b != nil
}
