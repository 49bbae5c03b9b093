package weft_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/pkg/cache"
	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/config"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/flow"
	"github.com/aretw0/weft/pkg/graph"
	"github.com/aretw0/weft/pkg/registry"
	"github.com/aretw0/weft/pkg/services"
	"github.com/aretw0/weft/pkg/tracing"
)

func TestNew_Defaults(t *testing.T) {
	ctx := context.Background()
	engine, err := weft.New()
	require.NoError(t, err)
	defer engine.Close(ctx)

	assert.Equal(t, config.Default(), engine.Settings())
	assert.True(t, engine.Catalog().Has("ChatInput"))
	assert.Contains(t, engine.Services().Names(), domain.ServiceSharedCache)

	defs, err := engine.Inspect()
	require.NoError(t, err)
	assert.Equal(t, "ChatOutput", defs["ChatOutput"].Name)
}

func TestNew_InvalidSettings(t *testing.T) {
	s := config.Default()
	s.VariableStore = "carrier-pigeon"
	_, err := weft.New(weft.WithSettings(s))
	assert.ErrorContains(t, err, "invalid settings")
}

func TestRunFlow_FromFile(t *testing.T) {
	ctx := context.Background()
	engine, err := weft.New(weft.WithRunID(func() string { return "fixed" }))
	require.NoError(t, err)
	defer engine.Close(ctx)

	def, err := flow.Load("pkg/flow/testdata/basic_prompting.yaml")
	require.NoError(t, err)
	require.NoError(t, engine.Validate(def))

	res, err := engine.RunFlow(ctx, def)
	require.NoError(t, err)
	assert.Equal(t, "fixed", res.RunID)
	assert.Contains(t, res.Outputs["chat-output.message"].(domain.Message).Text, "WHERE IS THE TREASURE?")
}

func TestValidate_ReportsGraphErrors(t *testing.T) {
	engine, err := weft.New()
	require.NoError(t, err)
	defer engine.Close(context.Background())

	def := &flow.Definition{
		Nodes: []flow.Node{{ID: "a", Type: "Pass"}, {ID: "b", Type: "Pass"}},
		Edges: []flow.Edge{
			{Source: "a", SourceOutput: "output_message", Target: "b", TargetInput: "input_message"},
			{Source: "b", SourceOutput: "output_message", Target: "a", TargetInput: "input_message"},
		},
	}
	assert.ErrorIs(t, engine.Validate(def), domain.ErrGraphCycle)

	def = &flow.Definition{Nodes: []flow.Node{{ID: "a", Type: "Pass"}}}
	var missing *domain.MissingInputError
	require.ErrorAs(t, engine.Validate(def), &missing)
	assert.Equal(t, "input_message", missing.Input)
}

// counting reads the shared cache and counts factory calls across runs.
type counting struct {
	component.Base
	created *atomic.Int32
}

func (c *counting) Definition() component.Definition {
	return component.Definition{
		Name:    "Counting",
		Outputs: []component.Output{component.NewOutput("value", "Value")},
	}
}

func (c *counting) Value(ctx context.Context) (any, error) {
	shared, err := c.SharedCache(ctx)
	if err != nil {
		return nil, err
	}
	return shared.GetOrCreate(ctx, "expensive", func(context.Context) (any, error) {
		c.created.Add(1)
		return "built", nil
	})
}

func TestRun_SharedCacheOutlivesRuns(t *testing.T) {
	ctx := context.Background()
	var created atomic.Int32
	cat := registry.NewRegistry()
	cat.Register("Counting", func() component.Component { return &counting{created: &created} })

	engine, err := weft.New(weft.WithCatalog(cat))
	require.NoError(t, err)
	defer engine.Close(ctx)

	def := &flow.Definition{Nodes: []flow.Node{{ID: "c", Type: "Counting"}}}
	for i := 0; i < 3; i++ {
		res, err := engine.RunFlow(ctx, def)
		require.NoError(t, err)
		assert.Equal(t, "built", res.Outputs["c.value"])
	}
	assert.Equal(t, int32(1), created.Load())

	shared, err := services.Get[*cache.Cache](ctx, engine.Services(), domain.ServiceSharedCache)
	require.NoError(t, err)
	assert.Equal(t, cache.Stats{Hits: 2, Misses: 1, Entries: 1}, shared.Stats())
}

func TestRun_LogsReachTracingService(t *testing.T) {
	ctx := context.Background()
	engine, err := weft.New(weft.WithRunID(func() string { return "traced" }))
	require.NoError(t, err)
	defer engine.Close(ctx)

	def := &flow.Definition{Nodes: []flow.Node{
		{ID: "conv", Type: "MessagetoData", Params: map[string]any{"message": "not a message"}},
	}}
	_, err = engine.RunFlow(ctx, def)
	require.NoError(t, err)

	tr, err := services.Get[*tracing.Service](ctx, engine.Services(), domain.ServiceTracing)
	require.NoError(t, err)
	entries := tr.Logs("traced")
	require.Len(t, entries, 1)
	assert.Equal(t, "conv", entries[0].Component)
}

func TestNewRun_Retry(t *testing.T) {
	ctx := context.Background()
	engine, err := weft.New(weft.WithMethodTimeout(time.Second), weft.WithConcurrency(2))
	require.NoError(t, err)
	defer engine.Close(ctx)

	in := component.MustNew("in", &shoutOnce{})
	g, err := graph.New([]*component.Instance{in})
	require.NoError(t, err)

	run := engine.NewRun(g)
	_, err = run.Execute(ctx)
	require.ErrorIs(t, err, domain.ErrComponentExecution)

	res, err := run.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second try", res.Outputs["in.text"])
	assert.Equal(t, run.ID(), res.RunID)
}

// shoutOnce fails its first invocation.
type shoutOnce struct {
	component.Base
	calls atomic.Int32
}

func (s *shoutOnce) Definition() component.Definition {
	return component.Definition{
		Name:    "ShoutOnce",
		Outputs: []component.Output{component.NewOutput("text", "Build", domain.TypeText)},
	}
}

func (s *shoutOnce) Build(ctx context.Context) (string, error) {
	if s.calls.Add(1) == 1 {
		return "", assert.AnError
	}
	return "second try", nil
}

func TestClose_InjectedServicesStayOpen(t *testing.T) {
	ctx := context.Background()
	reg := services.NewDefault(config.Default())
	defer reg.Close(ctx)

	engine, err := weft.New(weft.WithServices(reg))
	require.NoError(t, err)
	_, err = services.Get[*cache.Cache](ctx, reg, domain.ServiceCache)
	require.NoError(t, err)

	require.NoError(t, engine.Close(ctx))
	assert.True(t, reg.Created(domain.ServiceCache))
}
