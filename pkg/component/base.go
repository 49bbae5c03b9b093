package component

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
)

// Base is embedded by every component. It is bound to its Instance by New and
// gives output methods access to resolved inputs, the status slot and
// run-scoped services.
type Base struct {
	inst *Instance
}

func (b *Base) base() *Base { return b }

// ID returns the instance id, or "" before the component is instantiated.
func (b *Base) ID() string {
	if b.inst == nil {
		return ""
	}
	return b.inst.id
}

// RunID returns the id of the run the instance is attached to.
func (b *Base) RunID() string {
	if b.inst == nil {
		return ""
	}
	return b.inst.Env().RunID
}

// Input returns the current value of an input (resolved, literal or default).
func (b *Base) Input(name string) any {
	v, _ := b.Lookup(name)
	return v
}

// Lookup returns an input value together with its slot state.
func (b *Base) Lookup(name string) (any, SlotState) {
	if b.inst == nil {
		return nil, SlotUnset
	}
	return b.inst.Lookup(name)
}

// Text returns the input coerced to text.
func (b *Base) Text(name string) string {
	v := b.Input(name)
	if v == nil {
		return ""
	}
	if s, ok := domain.AsText(v); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the input coerced to an int.
func (b *Base) Int(name string) (int, error) {
	switch v := b.Input(name).(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("input %q: %w", name, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("input %q: cannot use %T as int", name, v)
	}
}

// Float returns the input coerced to a float64.
func (b *Base) Float(name string) (float64, error) {
	switch v := b.Input(name).(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("input %q: %w", name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("input %q: cannot use %T as float", name, v)
	}
}

// Bool returns the input coerced to a bool. Unset inputs are false.
func (b *Base) Bool(name string) bool {
	switch v := b.Input(name).(type) {
	case bool:
		return v
	case string:
		ok, _ := strconv.ParseBool(v)
		return ok
	default:
		return false
	}
}

// Decode copies the current input values into target using `input` struct tags.
func (b *Base) Decode(target any) error {
	values := map[string]any{}
	if b.inst != nil {
		values = b.inst.Values()
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "input",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(values); err != nil {
		return fmt.Errorf("decode inputs of %q: %w", b.ID(), err)
	}
	return nil
}

// SetStatus stores a diagnostic value on the instance.
func (b *Base) SetStatus(v any) {
	if b.inst != nil {
		b.inst.SetStatus(v)
	}
}

// Status returns the last diagnostic value.
func (b *Base) Status() any {
	if b.inst == nil {
		return nil
	}
	return b.inst.Status()
}

// Log emits a named record to the run's tracing sink. The name defaults to
// the instance id.
func (b *Base) Log(message any, name ...string) {
	if b.inst == nil {
		return
	}
	n := b.inst.id
	if len(name) > 0 && name[0] != "" {
		n = name[0]
	}
	env := b.inst.Env()
	if env.Emit != nil {
		env.Emit(domain.NewLog(n, message))
	}
}

// Logger returns a logger scoped to this instance and run.
func (b *Base) Logger() *slog.Logger {
	if b.inst == nil {
		return logging.NewNop()
	}
	env := b.inst.Env()
	l := env.Logger
	if l == nil {
		l = logging.NewNop()
	}
	return l.With("component", b.inst.id, "run_id", env.RunID)
}

// Service resolves a named service from the run's registry.
func (b *Base) Service(ctx context.Context, name string) (any, error) {
	var r Resolver
	if b.inst != nil {
		r = b.inst.Env().Services
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s (no service registry attached)", domain.ErrServiceNotFound, name)
	}
	return r.Resolve(ctx, name)
}

// SharedCache returns the process-wide cache shared between component runs.
func (b *Base) SharedCache(ctx context.Context) (Cache, error) {
	svc, err := b.Service(ctx, domain.ServiceSharedCache)
	if err != nil {
		return nil, err
	}
	c, ok := svc.(Cache)
	if !ok {
		return nil, fmt.Errorf("service %s has unexpected type %T", domain.ServiceSharedCache, svc)
	}
	return c, nil
}
