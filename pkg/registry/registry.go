package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

// Constructor returns a fresh, unbound component value.
type Constructor func() component.Component

// Registry maps component type names to constructors.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Constructor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]Constructor),
	}
}

// Register adds a component type to the registry.
// If a type with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = fn
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds a component of the given type. Configurable components receive
// params before their definition is read.
func (r *Registry) New(name string, params map[string]any) (component.Component, error) {
	r.mu.RLock()
	fn, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownComponentType, name)
	}

	c := fn()
	if cfg, ok := c.(component.Configurable); ok {
		if err := cfg.Configure(params); err != nil {
			return nil, fmt.Errorf("configure %s: %w", name, err)
		}
	}
	return c, nil
}

// Describe returns the declared definition of a type without binding it.
func (r *Registry) Describe(name string) (component.Definition, error) {
	c, err := r.New(name, nil)
	if err != nil {
		return component.Definition{}, err
	}
	return c.Definition(), nil
}

// Instantiate builds a bound instance with id and applies params as literal
// input values.
func (r *Registry) Instantiate(id, name string, params map[string]any) (*component.Instance, error) {
	c, err := r.New(name, params)
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", id, err)
	}
	inst, err := component.New(id, c)
	if err != nil {
		return nil, err
	}
	// Report every bad literal at once; SetAll stops at the first.
	if err := inst.Definition().Schema().Validate(params); err != nil {
		return nil, fmt.Errorf("component %q: %w", id, err)
	}
	if err := inst.SetAll(params); err != nil {
		return nil, err
	}
	return inst, nil
}
