package runtime_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/graph"
)

func helloWorld(t *testing.T) (*graph.Graph, *source, *suffix) {
	t.Helper()
	src := &source{}
	suf := &suffix{}
	a := component.MustNew("a", src)
	b := component.MustNew("b", suf)
	c := component.MustNew("c", &upper{})
	require.NoError(t, a.Set("value", "hello"))
	require.NoError(t, b.SetAll(map[string]any{"in": a.Output("text"), "suffix": "-world"}))
	require.NoError(t, c.Set("in", b.Output("text")))

	g, err := graph.New([]*component.Instance{c, b, a})
	require.NoError(t, err)
	return g, src, suf
}

func TestExecute_HelloWorld(t *testing.T) {
	g, _, _ := helloWorld(t)
	engine := runtime.NewEngine(runtime.WithRunID(func() string { return "run-1" }))

	res, err := engine.Execute(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []string{"a", "b", "c"}, res.Order)
	assert.Equal(t, map[string]any{"c.text": "HELLO-WORLD"}, res.Outputs)

	v, ok := res.Output("c", "text")
	assert.True(t, ok)
	assert.Equal(t, "HELLO-WORLD", v)

	// b.length is neither wired nor terminal, so it never runs.
	require.Len(t, res.Statuses, 3)
	for i, want := range []string{"a.text", "b.text", "c.text"} {
		st := res.Statuses[i]
		assert.Equal(t, want, domain.OutputKey(st.Component, st.Output))
		assert.Equal(t, domain.StatusOK, st.Status)
	}

	c, _ := g.Instance("c")
	assert.Equal(t, "HELLO-WORLD", c.Status())
}

func TestExecute_OutputComputedOncePerRun(t *testing.T) {
	src := &source{}
	a := component.MustNew("a", src)
	require.NoError(t, a.Set("value", "x"))

	instances := []*component.Instance{a}
	for i := 0; i < 5; i++ {
		consumer := component.MustNew(fmt.Sprintf("consumer-%d", i), &suffix{})
		require.NoError(t, consumer.Set("in", a.Output("text")))
		instances = append(instances, consumer)
	}
	g, err := graph.New(instances)
	require.NoError(t, err)

	res, err := runtime.NewEngine().Execute(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.calls.Load())
	// Terminal consumers report all their outputs.
	assert.Len(t, res.Outputs, 10)
	assert.Equal(t, "x", res.Outputs["consumer-3.text"])
	assert.Equal(t, 1, res.Outputs["consumer-3.length"])
}

func TestExecute_FreshRunRecomputes(t *testing.T) {
	g, src, _ := helloWorld(t)
	engine := runtime.NewEngine()

	first, err := engine.Execute(context.Background(), g)
	require.NoError(t, err)
	second, err := engine.Execute(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Outputs, second.Outputs)
}

func TestExecute_FailFastAndRetry(t *testing.T) {
	src := &source{}
	fl := &flaky{}
	fl.failing.Store(true)

	a := component.MustNew("a", src)
	f := component.MustNew("f", fl)
	c := component.MustNew("c", &upper{})
	require.NoError(t, a.Set("value", "hello"))
	require.NoError(t, f.Set("in", a.Output("text")))
	require.NoError(t, c.Set("in", f.Output("text")))

	g, err := graph.New([]*component.Instance{a, f, c})
	require.NoError(t, err)

	run := runtime.NewEngine().NewRun(g)
	_, err = run.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrComponentExecution)
	assert.ErrorIs(t, err, errFlaky)

	var execErr *domain.ComponentExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "f", execErr.Component)
	assert.Equal(t, "text", execErr.Output)

	statuses := run.Statuses()
	require.Len(t, statuses, 2, "c must not run after f failed")
	assert.Equal(t, domain.StatusError, statuses[1].Status)
	assert.Equal(t, errFlaky.Error(), statuses[1].Error)
	assert.ErrorIs(t, f.Status().(error), errFlaky)

	fl.failing.Store(false)
	res, err := run.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "RECOVERED:HELLO", res.Outputs["c.text"])
	assert.Equal(t, int32(1), src.calls.Load(), "successful outputs are reused on retry")
	assert.Equal(t, int32(2), fl.calls.Load())
	assert.Equal(t, run.ID(), res.RunID)
}

func TestExecute_PanicIsRecovered(t *testing.T) {
	p := component.MustNew("p", &flaky{panics: true})
	g, err := graph.New([]*component.Instance{p})
	require.NoError(t, err)

	_, err = runtime.NewEngine().Execute(context.Background(), g)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrComponentPanic)
	assert.ErrorIs(t, err, domain.ErrComponentExecution)
}

func TestExecute_CycleFailsBeforeAnyOutput(t *testing.T) {
	s1, s2 := &suffix{}, &suffix{}
	a := component.MustNew("a", s1)
	b := component.MustNew("b", s2)
	require.NoError(t, a.Set("in", b.Output("text")))
	require.NoError(t, b.Set("in", a.Output("text")))

	_, err := graph.New([]*component.Instance{a, b})
	require.ErrorIs(t, err, domain.ErrGraphCycle)
	assert.Zero(t, s1.calls.Load())
	assert.Zero(t, s2.calls.Load())
}

func TestExecute_MissingInputFailsBeforeAnyOutput(t *testing.T) {
	src := &source{}
	a := component.MustNew("a", src)
	b := component.MustNew("b", &suffix{})

	_, err := graph.New([]*component.Instance{a, b})
	var missing *domain.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "b", missing.Component)
	assert.Equal(t, "in", missing.Input)
	assert.Zero(t, src.calls.Load())
}

func TestExecute_CanceledBeforeStart(t *testing.T) {
	g, src, _ := helloWorld(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runtime.NewEngine().Execute(ctx, g)
	require.ErrorIs(t, err, domain.ErrRunCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls.Load())
}

func TestExecute_CanceledMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := component.MustNew("first", &sleeper{delay: time.Hour, onRun: cancel})
	down := &suffix{}
	second := component.MustNew("second", down)
	require.NoError(t, second.Set("in", first.Output("text")))
	g, err := graph.New([]*component.Instance{first, second})
	require.NoError(t, err)

	_, err = runtime.NewEngine().Execute(ctx, g)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, down.calls.Load())
}

func TestExecute_MethodTimeout(t *testing.T) {
	s := component.MustNew("s", &sleeper{delay: time.Minute})
	g, err := graph.New([]*component.Instance{s})
	require.NoError(t, err)

	engine := runtime.NewEngine(runtime.WithMethodTimeout(10 * time.Millisecond))
	_, err = engine.Execute(context.Background(), g)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_HooksAndLogs(t *testing.T) {
	g, _, _ := helloWorld(t)

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	}
	hooks := domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) { record("run_start") },
		OnRunEnd:   func(ctx context.Context, e *domain.RunEvent) { record("run_end") },
		OnComponentEnd: func(ctx context.Context, e *domain.ComponentEvent) {
			record("end:" + domain.OutputKey(e.Component, e.Output))
		},
		OnLog: func(ctx context.Context, e *domain.LogEvent) { record("log:" + e.Component) },
	}

	res, err := runtime.NewEngine(runtime.WithLifecycleHooks(hooks)).Execute(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, []string{"run_start", "log:a", "end:a.text", "end:b.text", "end:c.text", "run_end"}, events)
	require.Len(t, res.Logs, 1)
	assert.Equal(t, "a", res.Logs[0].Log.Name)
	assert.Equal(t, "emitting hello", res.Logs[0].Log.Message)
}

func TestExecute_Concurrent(t *testing.T) {
	src := &source{}
	root := component.MustNew("root", src)
	require.NoError(t, root.Set("value", "v"))

	instances := []*component.Instance{root}
	for i := 0; i < 8; i++ {
		s := component.MustNew(fmt.Sprintf("s%d", i), &sleeper{delay: 5 * time.Millisecond})
		require.NoError(t, s.Set("in", root.Output("text")))
		instances = append(instances, s)
	}
	sink := component.MustNew("sink", &upper{})
	require.NoError(t, sink.Set("in", instances[3].Output("text")))
	instances = append(instances, sink)

	g, err := graph.New(instances)
	require.NoError(t, err)

	res, err := runtime.NewEngine(runtime.WithConcurrency(4)).Execute(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, "SLEPT", res.Outputs["sink.text"])
	assert.Len(t, res.Statuses, 10)
}

func TestExecute_OverlappingRunsAreRefused(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once

	src := &source{}
	a := component.MustNew("a", src)
	s := component.MustNew("s", &sleeper{delay: time.Hour, gate: gate, onRun: func() { once.Do(func() { close(started) }) }})
	require.NoError(t, a.Set("value", "first"))
	require.NoError(t, s.Set("in", a.Output("text")))
	g, err := graph.New([]*component.Instance{a, s})
	require.NoError(t, err)

	var seq atomic.Int32
	engine := runtime.NewEngine(runtime.WithRunID(func() string {
		return fmt.Sprintf("run-%d", seq.Add(1))
	}))

	type outcome struct {
		res *domain.RunResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := engine.Execute(context.Background(), g)
		done <- outcome{res, err}
	}()
	<-started

	_, err = engine.Execute(context.Background(), g)
	require.ErrorIs(t, err, domain.ErrInstanceBusy)
	assert.Contains(t, err.Error(), "run-1")

	close(gate)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "run-1", first.res.RunID)
	assert.Equal(t, "slept", first.res.Outputs["s.text"])
	require.Len(t, first.res.Logs, 1)
	assert.Equal(t, "run-1", first.res.Logs[0].RunID)
	assert.Equal(t, "emitting first", first.res.Logs[0].Log.Message)
	assert.Equal(t, int32(1), src.calls.Load())

	// Once the first run has finished the graph is free again.
	next, err := engine.Execute(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "run-3", next.RunID)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestExecute_KeepsStatusSetByComponent(t *testing.T) {
	a := component.MustNew("a", &source{})
	l := component.MustNew("l", &labeler{})
	require.NoError(t, a.Set("value", "hello"))
	require.NoError(t, l.Set("in", a.Output("text")))
	g, err := graph.New([]*component.Instance{a, l})
	require.NoError(t, err)

	res, err := runtime.NewEngine().Execute(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Outputs["l.text"])
	assert.Equal(t, "5 bytes", l.Status())
	// Components that leave the slot alone still report their value.
	assert.Equal(t, "hello", a.Status())
}

type recordingSink struct {
	mu   sync.Mutex
	logs []string
}

func (s *recordingSink) AddLog(runID, comp string, l domain.Log) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, runID+"/"+comp+"/"+l.Name)
}

type staticResolver map[string]any

func (r staticResolver) Resolve(ctx context.Context, name string) (any, error) {
	if v, ok := r[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, name)
}

func TestExecute_ForwardsLogsToTracingService(t *testing.T) {
	g, _, _ := helloWorld(t)
	sink := &recordingSink{}

	engine := runtime.NewEngine(
		runtime.WithServices(staticResolver{domain.ServiceTracing: sink}),
		runtime.WithRunID(func() string { return "r" }),
	)
	_, err := engine.Execute(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []string{"r/a/a"}, sink.logs)
}
