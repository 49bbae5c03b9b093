package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/weft/pkg/cache"
	"github.com/aretw0/weft/pkg/config"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/events"
	"github.com/aretw0/weft/pkg/tracing"
	"github.com/aretw0/weft/pkg/variable"
)

// SettingsFactory serves a copy of s as *config.Settings.
func SettingsFactory(s config.Settings) Factory {
	return FactoryFunc(domain.ServiceSettings, nil, func(ctx context.Context, _ Dependencies) (any, error) {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		settings := s
		return &settings, nil
	})
}

// CacheFactory serves a general purpose *cache.Cache under name.
func CacheFactory(name string) Factory {
	return FactoryFunc(name, nil, func(ctx context.Context, _ Dependencies) (any, error) {
		return cache.New(), nil
	})
}

// VariableFactory builds the variable store selected by settings.variable_store,
// wrapped with encryption when a key is configured.
func VariableFactory(logger *slog.Logger) Factory {
	return FactoryFunc(domain.ServiceVariable, []string{domain.ServiceSettings}, func(ctx context.Context, deps Dependencies) (any, error) {
		settings, ok := deps[domain.ServiceSettings].(*config.Settings)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected settings type %T", domain.ServiceVariable, deps[domain.ServiceSettings])
		}

		var svc variable.Service
		switch settings.VariableStore {
		case config.StoreMemory, "":
			svc = variable.NewMemory()
		case config.StoreFile:
			svc = variable.NewFile(settings.VariablesPath)
		case config.StoreRedis:
			rs, err := variable.NewRedis(settings.RedisURL, variable.WithPrefix(settings.RedisPrefix))
			if err != nil {
				return nil, err
			}
			svc = rs
		default:
			return nil, fmt.Errorf("unsupported variable store %q", settings.VariableStore)
		}

		// Failed creations are retried on the next Resolve; release the
		// connection held by this attempt.
		fail := func(err error) (any, error) {
			if c, ok := svc.(io.Closer); ok {
				err = errors.Join(err, c.Close())
			}
			return nil, err
		}

		keys, err := settings.EncryptionKeys()
		if err != nil {
			return fail(err)
		}
		if len(keys) > 0 {
			enc, err := variable.NewEncrypted(svc, variable.EncryptionConfig{ActiveKey: keys[0], FallbackKeys: keys[1:]})
			if err != nil {
				return fail(err)
			}
			svc = enc
		}

		if len(settings.VariablesFromEnv) > 0 {
			skipped, err := variable.LoadFromEnv(ctx, svc, settings.VariablesFromEnv, os.LookupEnv)
			if err != nil {
				return fail(err)
			}
			for _, name := range skipped {
				logger.Warn("environment variable not set", "variable", name)
			}
		}

		logger.Debug("variable store ready", "store", settings.VariableStore, "encrypted", len(keys) > 0)
		return svc, nil
	})
}

// TracingFactory builds the tracing service sized by settings.trace_limit.
func TracingFactory(logger *slog.Logger) Factory {
	return FactoryFunc(domain.ServiceTracing, []string{domain.ServiceSettings}, func(ctx context.Context, deps Dependencies) (any, error) {
		settings, ok := deps[domain.ServiceSettings].(*config.Settings)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected settings type %T", domain.ServiceTracing, deps[domain.ServiceSettings])
		}
		return tracing.New(settings.TraceLimit, tracing.WithLogger(logger)), nil
	})
}

// SocketFactory builds the event broker, keeping run history in cache_service.
func SocketFactory() Factory {
	return FactoryFunc(domain.ServiceSocket, []string{domain.ServiceCache}, func(ctx context.Context, deps Dependencies) (any, error) {
		c, ok := deps[domain.ServiceCache].(*cache.Cache)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected cache type %T", domain.ServiceSocket, deps[domain.ServiceCache])
		}
		return events.New(c, 0), nil
	})
}

// NewDefault returns a registry with every built-in service registered.
func NewDefault(settings config.Settings, opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for _, f := range []Factory{
		SettingsFactory(settings),
		CacheFactory(domain.ServiceCache),
		CacheFactory(domain.ServiceSharedCache),
		VariableFactory(r.logger),
		TracingFactory(r.logger),
		SocketFactory(),
	} {
		// Names are distinct and nothing has been created yet.
		_ = r.Register(f)
	}
	return r
}
