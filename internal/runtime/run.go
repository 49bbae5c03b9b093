package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/graph"
)

// Run is one execution of a graph. Its memo lives as long as the Run, so
// calling Execute again after a failure retries only what did not succeed.
type Run struct {
	id     string
	engine *Engine
	graph  *graph.Graph
	memo   *memo

	mu       sync.Mutex
	statuses []domain.StatusEntry
	logs     []domain.LogEvent
	attempts int
}

// ID returns the run id.
func (r *Run) ID() string { return r.id }

// Graph returns the graph being executed.
func (r *Run) Graph() *graph.Graph { return r.graph }

// Statuses returns a copy of the status entries recorded so far.
func (r *Run) Statuses() []domain.StatusEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StatusEntry, len(r.statuses))
	copy(out, r.statuses)
	return out
}

// Logs returns a copy of the log events recorded so far.
func (r *Run) Logs() []domain.LogEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LogEvent, len(r.logs))
	copy(out, r.logs)
	return out
}

// Execute walks the graph in build order, invoking every needed output once.
// It stops at the first failure and returns a *domain.ComponentExecutionError.
func (r *Run) Execute(ctx context.Context) (*domain.RunResult, error) {
	e := r.engine
	start := time.Now()
	order := r.graph.OrderIDs()
	logger := e.logger.With("run_id", r.id)

	release, err := r.claim()
	if err != nil {
		return nil, err
	}
	defer release()

	r.mu.Lock()
	r.attempts++
	attempt := r.attempts
	r.mu.Unlock()

	sink := r.resolveSink(ctx, logger)
	for _, inst := range r.graph.Instances() {
		inst.Attach(component.Env{
			RunID:    r.id,
			Logger:   e.logger,
			Services: e.services,
			Emit:     r.emitter(ctx, logger, sink, inst.ID()),
		})
	}

	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: r.event(domain.EventRunStart),
			Order:     order,
		})
	}
	logger.Info("run started", "instances", len(order), "attempt", attempt)

	if e.concurrency > 1 {
		err = r.executeLevels(ctx)
	} else {
		for _, inst := range r.graph.Order() {
			if err = r.step(ctx, inst); err != nil {
				break
			}
		}
	}
	duration := time.Since(start)

	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(ctx, &domain.RunEvent{
			EventBase: r.event(domain.EventRunEnd),
			Order:     order,
			Duration:  duration,
			Err:       err,
		})
	}
	if err != nil {
		logger.Error("run failed", "err", err, "duration", duration)
		return nil, err
	}
	logger.Info("run finished", "duration", duration)

	return &domain.RunResult{
		RunID:    r.id,
		Order:    order,
		Outputs:  r.terminalOutputs(),
		Statuses: r.Statuses(),
		Logs:     r.Logs(),
		Duration: duration,
	}, nil
}

// claim reserves every instance of the graph for this run, or none of them.
func (r *Run) claim() (func(), error) {
	instances := r.graph.Instances()
	for n, inst := range instances {
		if err := inst.Claim(r.id); err != nil {
			for _, held := range instances[:n] {
				held.Release(r.id)
			}
			return nil, err
		}
	}
	return func() {
		for _, inst := range instances {
			inst.Release(r.id)
		}
	}, nil
}

// executeLevels dispatches each level through an errgroup. Levels only
// depend on earlier levels, so waiting between them keeps every input ready.
func (r *Run) executeLevels(ctx context.Context) error {
	for _, level := range r.graph.Levels() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.engine.concurrency)
		for _, inst := range level {
			g.Go(func() error {
				return r.step(gctx, inst)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// step resolves the wired inputs of one instance and computes its needed outputs.
func (r *Run) step(ctx context.Context, inst *component.Instance) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w before %q: %w", domain.ErrRunCanceled, inst.ID(), err)
	}

	for _, b := range inst.Bindings() {
		v, err := r.output(ctx, b.Ref.Source, b.Ref.Output)
		if err != nil {
			return err
		}
		if err := inst.Resolve(b.Input, v); err != nil {
			return err
		}
	}

	for _, name := range r.graph.NeededOutputs(inst.ID()) {
		if _, err := r.output(ctx, inst, name); err != nil {
			return err
		}
	}
	return nil
}

// output returns the memoized value of an output, computing it at most once.
func (r *Run) output(ctx context.Context, inst *component.Instance, name string) (any, error) {
	v, _, err := r.memo.compute(domain.OutputKey(inst.ID(), name), func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w before %s: %w", domain.ErrRunCanceled, domain.OutputKey(inst.ID(), name), err)
		}
		return r.invoke(ctx, inst, name)
	})
	return v, err
}

func (r *Run) invoke(ctx context.Context, inst *component.Instance, name string) (any, error) {
	e := r.engine
	id := inst.ID()

	if e.hooks.OnComponentStart != nil {
		e.hooks.OnComponentStart(ctx, &domain.ComponentEvent{
			EventBase: r.event(domain.EventComponentStart),
			Component: id,
			Output:    name,
		})
	}
	e.logger.Debug("invoking output", "run_id", r.id, "component", id, "output", name)

	callCtx := ctx
	if e.methodTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.methodTimeout)
		defer cancel()
	}

	statusVer := inst.StatusVersion()
	started := time.Now()
	value, err := safeInvoke(callCtx, inst, name)
	duration := time.Since(started)

	entry := domain.StatusEntry{
		Component: id,
		Output:    name,
		Status:    domain.StatusOK,
		Value:     value,
		Duration:  duration,
	}
	if err != nil {
		entry.Status = domain.StatusError
		entry.Value = nil
		entry.Error = err.Error()
		inst.SetStatus(err)
	} else {
		inst.SetStatusIfUnchanged(statusVer, value)
	}

	r.mu.Lock()
	r.statuses = append(r.statuses, entry)
	r.mu.Unlock()

	if e.hooks.OnComponentEnd != nil {
		e.hooks.OnComponentEnd(ctx, &domain.ComponentEvent{
			EventBase: r.event(domain.EventComponentEnd),
			Component: id,
			Output:    name,
			Value:     value,
			Duration:  duration,
			Err:       err,
		})
	}

	if err != nil {
		e.logger.Error("output failed", "run_id", r.id, "component", id, "output", name, "err", err)
		return nil, &domain.ComponentExecutionError{Component: id, Output: name, Err: err}
	}
	return value, nil
}

func safeInvoke(ctx context.Context, inst *component.Instance, name string) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v\n%s", domain.ErrComponentPanic, rec, debug.Stack())
		}
	}()
	return inst.Invoke(ctx, name)
}

func (r *Run) terminalOutputs() map[string]any {
	out := make(map[string]any)
	for _, inst := range r.graph.Terminals() {
		for _, name := range r.graph.NeededOutputs(inst.ID()) {
			key := domain.OutputKey(inst.ID(), name)
			if v, ok := r.memo.get(key); ok {
				out[key] = v
			}
		}
	}
	return out
}

// resolveSink looks up the tracing service, if the registry provides one.
func (r *Run) resolveSink(ctx context.Context, logger *slog.Logger) LogSink {
	if r.engine.services == nil {
		return nil
	}
	svc, err := r.engine.services.Resolve(ctx, domain.ServiceTracing)
	if err != nil {
		if !errors.Is(err, domain.ErrServiceNotFound) {
			logger.Warn("tracing service unavailable", "err", err)
		}
		return nil
	}
	sink, _ := svc.(LogSink)
	return sink
}

func (r *Run) emitter(ctx context.Context, logger *slog.Logger, sink LogSink, id string) func(domain.Log) {
	return func(l domain.Log) {
		if _, err := l.SerializeMessage(); err != nil {
			logger.Warn("log message stored as string", "component", id, "err", err)
		}
		ev := domain.LogEvent{
			EventBase: r.event(domain.EventLog),
			Component: id,
			Log:       l,
		}
		r.mu.Lock()
		r.logs = append(r.logs, ev)
		r.mu.Unlock()

		if sink != nil {
			sink.AddLog(r.id, id, l)
		}
		if r.engine.hooks.OnLog != nil {
			r.engine.hooks.OnLog(ctx, &ev)
		}
	}
}

func (r *Run) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: r.id}
}
