package weft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/components"
	"github.com/aretw0/weft/pkg/config"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/flow"
	"github.com/aretw0/weft/pkg/graph"
	"github.com/aretw0/weft/pkg/registry"
	"github.com/aretw0/weft/pkg/services"
)

// Run is one execution of a graph. Calling Execute again after a failure
// retries it, reusing every output that already succeeded.
type Run = runtime.Run

// Engine is the high-level entry point for the weft library.
// It wraps the internal runtime together with a component catalog and a
// service registry.
type Engine struct {
	runtime      *runtime.Engine
	catalog      *registry.Registry
	services     *services.Registry
	ownsServices bool
	settings     config.Settings
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	runtimeOpts  []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.ChainHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSettings replaces the default settings. They size the engine and
// configure the built-in services.
func WithSettings(s config.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithCatalog replaces the default component catalog.
func WithCatalog(r *registry.Registry) Option {
	return func(e *Engine) {
		e.catalog = r
	}
}

// WithServices injects a service registry. The caller keeps ownership and
// must close it.
func WithServices(r *services.Registry) Option {
	return func(e *Engine) {
		e.services = r
	}
}

// WithConcurrency overrides settings.concurrency.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithConcurrency(n))
	}
}

// WithMethodTimeout overrides settings.method_timeout.
func WithMethodTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMethodTimeout(d))
	}
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRunID(fn))
	}
}

// New initializes a new weft Engine.
// Without options it uses the default settings, the bundled component
// catalog and a service registry with every built-in service.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{settings: config.Default()}
	for _, opt := range opts {
		opt(eng)
	}

	if err := eng.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.catalog == nil {
		eng.catalog = components.Catalog()
	}
	if eng.services == nil {
		eng.services = services.NewDefault(eng.settings, services.WithLogger(eng.logger))
		eng.ownsServices = true
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithServices(eng.services),
		runtime.WithConcurrency(eng.settings.Concurrency),
		runtime.WithMethodTimeout(eng.settings.MethodTimeout),
	}
	// User-defined runtime options win over settings.
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)
	eng.runtime = runtime.NewEngine(runtimeOpts...)

	return eng, nil
}

// Build instantiates a flow definition against the catalog.
func (e *Engine) Build(def *flow.Definition) (*graph.Graph, error) {
	return flow.Build(def, e.catalog)
}

// Validate reports every structural, contract and graph error of def
// without running anything.
func (e *Engine) Validate(def *flow.Definition) error {
	_, err := e.Build(def)
	return err
}

// NewRun prepares an execution of g that can be retried.
func (e *Engine) NewRun(g *graph.Graph) *Run {
	return e.runtime.NewRun(g)
}

// Run executes g once.
func (e *Engine) Run(ctx context.Context, g *graph.Graph) (*domain.RunResult, error) {
	return e.runtime.Execute(ctx, g)
}

// RunFlow builds def and executes it.
func (e *Engine) RunFlow(ctx context.Context, def *flow.Definition) (*domain.RunResult, error) {
	g, err := e.Build(def)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, g)
}

// Inspect returns the declared contract of every catalog type, keyed by type name.
func (e *Engine) Inspect() (map[string]component.Definition, error) {
	out := make(map[string]component.Definition)
	var errs []error
	for _, name := range e.catalog.Types() {
		def, err := e.catalog.Describe(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = def
	}
	return out, errors.Join(errs...)
}

// Catalog returns the component catalog.
func (e *Engine) Catalog() *registry.Registry { return e.catalog }

// Services returns the service registry.
func (e *Engine) Services() *services.Registry { return e.services }

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() config.Settings { return e.settings }

// Close tears down the services the engine created.
func (e *Engine) Close(ctx context.Context) error {
	if !e.ownsServices {
		return nil
	}
	return e.services.Close(ctx)
}
