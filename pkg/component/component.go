package component

import (
	"context"
	"log/slog"

	"github.com/aretw0/weft/pkg/domain"
)

// Component is the contract every concrete component satisfies.
// Implementations embed Base, which carries the runtime accessors and the
// unexported method that closes the interface to this package's helpers.
type Component interface {
	Definition() Definition
	base() *Base
}

// Configurable components shape their declared inputs from node params
// before they are instantiated (dynamic prompt variables, for example).
type Configurable interface {
	Configure(params map[string]any) error
}

// Resolver hands out named services. The service registry implements it.
type Resolver interface {
	Resolve(ctx context.Context, name string) (any, error)
}

// Cache is the shared component cache as seen by components.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	GetOrCreate(ctx context.Context, key string, create func(context.Context) (any, error)) (any, error)
}

// Env is the run-scoped environment attached to an instance by the engine.
type Env struct {
	RunID    string
	Logger   *slog.Logger
	Services Resolver
	// Emit receives Log records produced through Base.Log.
	Emit func(domain.Log)
}
