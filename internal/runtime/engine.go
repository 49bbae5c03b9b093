package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/graph"
)

// LogSink receives every Log record emitted during a run. The tracing
// service implements it.
type LogSink interface {
	AddLog(runID, component string, l domain.Log)
}

// Engine executes component graphs.
type Engine struct {
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	services      component.Resolver
	concurrency   int
	methodTimeout time.Duration
	newRunID      func() string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithServices attaches the service registry components resolve shared
// resources from.
func WithServices(r component.Resolver) EngineOption {
	return func(e *Engine) {
		e.services = r
	}
}

// WithConcurrency lets up to n instances of the same level run at once.
// n <= 1 keeps the default sequential, deterministic execution.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithMethodTimeout bounds every output method invocation.
func WithMethodTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.methodTimeout = d
	}
}

// WithRunID overrides run id generation.
func WithRunID(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRun prepares a run of g with a fresh memo.
func (e *Engine) NewRun(g *graph.Graph) *Run {
	return &Run{
		id:     e.newRunID(),
		engine: e,
		graph:  g,
		memo:   newMemo(),
	}
}

// Execute runs g once and returns its terminal outputs.
func (e *Engine) Execute(ctx context.Context, g *graph.Graph) (*domain.RunResult, error) {
	return e.NewRun(g).Execute(ctx)
}
