package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/pkg/cache"
	"github.com/aretw0/weft/pkg/config"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/events"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/aretw0/weft/pkg/services"
	"github.com/aretw0/weft/pkg/tracing"
)

// Options configures the engine every command builds.
type Options struct {
	ConfigPath  string
	Debug       bool
	Concurrency int

	// Stderr receives log records. Defaults to os.Stderr.
	Stderr io.Writer
	// LookupEnv resolves WEFT_* overrides. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Runtime bundles the engine with the services the CLI reaches into.
type Runtime struct {
	Engine   *weft.Engine
	Services *services.Registry
	Broker   *events.Broker
	Tracing  *tracing.Service
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// LoadSettings reads the settings file and applies the environment overrides.
func LoadSettings(opts Options) (config.Settings, error) {
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return settings, err
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := settings.ApplyEnv(lookup); err != nil {
		return settings, err
	}
	if opts.Concurrency > 0 {
		settings.Concurrency = opts.Concurrency
	}
	if opts.Debug {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		return settings, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// NewRuntime initializes a weft engine with standard CLI conventions:
// settings from file and environment, metrics and event hooks, and the
// built-in services.
func NewRuntime(ctx context.Context, opts Options) (*Runtime, error) {
	settings, err := LoadSettings(opts)
	if err != nil {
		return nil, err
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := createLogger(settings, stderr)

	reg := services.NewDefault(settings, services.WithLogger(logger))
	rt := &Runtime{
		Services: reg,
		Metrics:  observability.NewMetrics(),
		Logger:   logger,
	}

	if rt.Broker, err = services.Get[*events.Broker](ctx, reg, domain.ServiceSocket); err != nil {
		return nil, errors.Join(fmt.Errorf("error initializing events: %w", err), reg.Close(ctx))
	}
	if rt.Tracing, err = services.Get[*tracing.Service](ctx, reg, domain.ServiceTracing); err != nil {
		return nil, errors.Join(fmt.Errorf("error initializing tracing: %w", err), reg.Close(ctx))
	}
	shared, err := services.Get[*cache.Cache](ctx, reg, domain.ServiceSharedCache)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error initializing shared cache: %w", err), reg.Close(ctx))
	}
	if err := rt.Metrics.WatchCache("shared", shared); err != nil {
		return nil, errors.Join(err, reg.Close(ctx))
	}

	engineOpts := []weft.Option{
		weft.WithSettings(settings),
		weft.WithLogger(logger),
		weft.WithServices(reg),
		weft.WithLifecycleHooks(rt.Metrics.Hooks()),
		weft.WithLifecycleHooks(rt.Broker.Hooks()),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, weft.WithLifecycleHooks(createDebugHooks(logger)))
	}

	rt.Engine, err = weft.New(engineOpts...)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("error initializing engine: %w", err), reg.Close(ctx))
	}
	return rt, nil
}

// Close tears down the services.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.Services.Close(ctx)
}
