// Package services is the lazy service locator: named factories declare
// their dependencies and the registry builds each service at most once, on
// first use.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
)

// Dependencies hands a factory the services it declared, keyed by name.
type Dependencies map[string]any

// Factory builds one named service.
type Factory interface {
	Name() string
	Dependencies() []string
	Create(ctx context.Context, deps Dependencies) (any, error)
}

type funcFactory struct {
	name   string
	deps   []string
	create func(context.Context, Dependencies) (any, error)
}

func (f *funcFactory) Name() string           { return f.name }
func (f *funcFactory) Dependencies() []string { return f.deps }
func (f *funcFactory) Create(ctx context.Context, deps Dependencies) (any, error) {
	return f.create(ctx, deps)
}

// FactoryFunc adapts a function into a Factory.
func FactoryFunc(name string, deps []string, create func(context.Context, Dependencies) (any, error)) Factory {
	return &funcFactory{name: name, deps: deps, create: create}
}

// lockEntry holds the per-name mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry resolves services by name.
// Creation of one name never blocks resolution of an unrelated name.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	services  map[string]any
	created   []string
	locks     map[string]*lockEntry

	logger *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		services:  make(map[string]any),
		locks:     make(map[string]*lockEntry),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a factory. A name can be registered again until its service
// has been created.
func (r *Registry) Register(f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := f.Name()
	if name == "" {
		return errors.New("service factory with empty name")
	}
	if _, ok := r.services[name]; ok {
		return fmt.Errorf("service %q already created", name)
	}
	r.factories[name] = f
	return nil
}

// Names returns the registered service names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Created reports whether the named service has been built.
func (r *Registry) Created(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.services[name]
	return ok
}

// Resolve returns the named service, creating it and its dependencies first
// if needed. A failed creation is not cached.
func (r *Registry) Resolve(ctx context.Context, name string) (any, error) {
	r.mu.Lock()
	if svc, ok := r.services[name]; ok {
		r.mu.Unlock()
		return svc, nil
	}
	err := r.checkLocked(name)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.resolve(ctx, name)
}

// checkLocked walks the dependency graph of name before any per-name lock is
// taken, so a cycle is reported instead of deadlocking.
func (r *Registry) checkLocked(name string) error {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var path []string

	var visit func(string) error
	visit = func(n string) error {
		switch state[n] {
		case visiting:
			return fmt.Errorf("%w: %s -> %s", domain.ErrServiceCycle, strings.Join(path, " -> "), n)
		case done:
			return nil
		}
		f, ok := r.factories[n]
		if !ok {
			if len(path) > 0 {
				return fmt.Errorf("%w: %s (required by %s)", domain.ErrServiceNotFound, n, path[len(path)-1])
			}
			return fmt.Errorf("%w: %s", domain.ErrServiceNotFound, n)
		}
		state[n] = visiting
		path = append(path, n)
		for _, dep := range f.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[n] = done
		return nil
	}
	return visit(name)
}

func (r *Registry) acquire(name string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.locks[name]
	if !ok {
		entry = &lockEntry{}
		r.locks[name] = entry
	}
	entry.refs++
	return entry
}

func (r *Registry) release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.locks[name]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, name)
	}
}

func (r *Registry) resolve(ctx context.Context, name string) (any, error) {
	entry := r.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.release(name)
	}()

	r.mu.Lock()
	svc, ok := r.services[name]
	f := r.factories[name]
	r.mu.Unlock()
	if ok {
		return svc, nil
	}

	deps := make(Dependencies, len(f.Dependencies()))
	for _, dep := range f.Dependencies() {
		d, err := r.resolve(ctx, dep)
		if err != nil {
			return nil, err
		}
		deps[dep] = d
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	svc, err := f.Create(ctx, deps)
	if err != nil {
		r.logger.Error("service creation failed", "service", name, "err", err)
		return nil, fmt.Errorf("create service %s: %w", name, err)
	}

	r.mu.Lock()
	r.services[name] = svc
	r.created = append(r.created, name)
	r.mu.Unlock()

	r.logger.Debug("service created", "service", name)
	return svc, nil
}

// Get resolves a service and asserts its type.
func Get[T any](ctx context.Context, r *Registry, name string) (T, error) {
	var zero T
	svc, err := r.Resolve(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has type %T, not %T", name, svc, zero)
	}
	return typed, nil
}

// Close tears services down in reverse creation order. Services implementing
// io.Closer are closed; every service is forgotten so the next Resolve
// creates it again.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	created := r.created
	services := r.services
	r.created = nil
	r.services = make(map[string]any)
	r.mu.Unlock()

	var errs []error
	for i := len(created) - 1; i >= 0; i-- {
		name := created[i]
		if c, ok := services[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close service %s: %w", name, err))
			}
		}
		r.logger.Debug("service closed", "service", name)
	}
	return errors.Join(errs...)
}
