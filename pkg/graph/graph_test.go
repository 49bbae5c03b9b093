package graph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/graph"
)

type node struct {
	component.Base
	required bool
}

func (n *node) Definition() component.Definition {
	var opts []component.InputOption
	if n.required {
		opts = append(opts, component.Required())
	}
	return component.Definition{
		Name: "Node",
		Inputs: []component.Input{
			component.MessageTextInput("in", opts...),
			component.MessageTextInput("extra"),
			component.DataInput("record"),
		},
		Outputs: []component.Output{
			component.NewOutput("text", "Text", domain.TypeText),
			component.NewOutput("message", "Message", domain.TypeMessage),
		},
	}
}

func (n *node) Text(ctx context.Context) (string, error) { return n.Base.Text("in"), nil }

func (n *node) Message(ctx context.Context) (domain.Message, error) {
	return domain.Message{Text: n.Base.Text("in")}, nil
}

func newNode(t *testing.T, id string) *component.Instance {
	t.Helper()
	return component.MustNew(id, &node{})
}

func wire(t *testing.T, dst *component.Instance, input string, src *component.Instance, output string) {
	t.Helper()
	require.NoError(t, dst.Set(input, src.Output(output)))
}

func TestNew_TopologicalOrder(t *testing.T) {
	// Declared out of dependency order on purpose.
	c := newNode(t, "c")
	a := newNode(t, "a")
	b := newNode(t, "b")
	wire(t, b, "in", a, "text")
	wire(t, c, "in", b, "text")

	g, err := graph.New([]*component.Instance{c, a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, g.OrderIDs())
	assert.Len(t, g.Edges(), 2)
	assert.Equal(t, []graph.Edge{{Source: "a", SourceOutput: "text", Target: "b", TargetInput: "in"}}, g.EdgesTo("b"))
	assert.Equal(t, []string{"c"}, ids(g.Terminals()))
	assert.True(t, g.IsTerminal("c"))
	assert.False(t, g.IsTerminal("a"))
}

func TestNew_StableTieBreak(t *testing.T) {
	// Diamond: root feeds x and y, sink consumes both.
	sink := newNode(t, "sink")
	y := newNode(t, "y")
	x := newNode(t, "x")
	root := newNode(t, "root")
	wire(t, x, "in", root, "text")
	wire(t, y, "in", root, "text")
	wire(t, sink, "in", x, "text")
	wire(t, sink, "extra", y, "text")

	instances := []*component.Instance{sink, y, x, root}
	first, err := graph.New(instances)
	require.NoError(t, err)

	// y is declared before x, so it wins the tie.
	assert.Equal(t, []string{"root", "y", "x", "sink"}, first.OrderIDs())

	for i := 0; i < 10; i++ {
		again, err := graph.New(instances)
		require.NoError(t, err)
		assert.Equal(t, first.OrderIDs(), again.OrderIDs())
	}

	levels := first.Levels()
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"root"}, ids(levels[0]))
	assert.Equal(t, []string{"y", "x"}, ids(levels[1]))
	assert.Equal(t, []string{"sink"}, ids(levels[2]))
}

func TestNew_EveryEdgeRespectsOrder(t *testing.T) {
	n := make([]*component.Instance, 6)
	for i := range n {
		n[i] = newNode(t, string(rune('a'+i)))
	}
	wire(t, n[0], "in", n[3], "text")
	wire(t, n[0], "extra", n[5], "message")
	wire(t, n[1], "in", n[0], "text")
	wire(t, n[2], "in", n[1], "message")
	wire(t, n[4], "in", n[2], "text")
	wire(t, n[4], "extra", n[3], "text")

	g, err := graph.New(n)
	require.NoError(t, err)

	pos := map[string]int{}
	for i, id := range g.OrderIDs() {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		assert.Less(t, pos[e.Source], pos[e.Target], e.String())
	}
}

func TestNew_Cycle(t *testing.T) {
	a := newNode(t, "a")
	b := newNode(t, "b")
	c := newNode(t, "c")
	free := newNode(t, "free")
	wire(t, a, "in", c, "text")
	wire(t, b, "in", a, "text")
	wire(t, c, "in", b, "text")

	_, err := graph.New([]*component.Instance{free, a, b, c})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGraphCycle)

	var cycleErr *domain.GraphCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "c"}, cycleErr.Instances)
}

func TestNew_SelfLoop(t *testing.T) {
	a := newNode(t, "a")
	wire(t, a, "in", a, "text")

	_, err := graph.New([]*component.Instance{a})
	var cycleErr *domain.GraphCycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a"}, cycleErr.Instances)
}

func TestNew_MissingInput(t *testing.T) {
	a := component.MustNew("a", &node{required: true})
	b := component.MustNew("b", &node{required: true})
	require.NoError(t, b.Set("in", a.Output("text")))

	_, err := graph.New([]*component.Instance{a, b})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingInput)

	var missing *domain.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "a", missing.Component)
	assert.Equal(t, "in", missing.Input)
}

func TestNew_NilLiteralLeavesInputMissing(t *testing.T) {
	a := component.MustNew("a", &node{required: true})
	require.NoError(t, a.Set("in", "bound"))
	require.NoError(t, a.Set("in", nil))

	_, state := a.Lookup("in")
	assert.Equal(t, component.SlotUnset, state)

	_, err := graph.New([]*component.Instance{a})
	var missing *domain.MissingInputError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "a", missing.Component)
	assert.Equal(t, "in", missing.Input)
}

func TestNew_EdgeTypeMismatch(t *testing.T) {
	a := newNode(t, "a")
	b := newNode(t, "b")
	wire(t, b, "record", a, "text")

	_, err := graph.New([]*component.Instance{a, b})
	require.Error(t, err)

	var edgeErr *domain.EdgeTypeError
	require.ErrorAs(t, err, &edgeErr)
	assert.Equal(t, "record", edgeErr.TargetInput)
	assert.Equal(t, []string{domain.TypeText}, edgeErr.Produced)

	g, err := graph.New([]*component.Instance{a, b}, graph.WithoutTypeCheck())
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())
}

func TestNew_UnknownAndDuplicateInstances(t *testing.T) {
	a := newNode(t, "a")
	outside := newNode(t, "outside")
	wire(t, a, "in", outside, "text")

	_, err := graph.New([]*component.Instance{a})
	assert.ErrorIs(t, err, domain.ErrUnknownInstance)

	dup := newNode(t, "outside")
	_, err = graph.New([]*component.Instance{outside, dup, a})
	assert.ErrorIs(t, err, domain.ErrDuplicateInstance)
}

func TestNeededOutputs(t *testing.T) {
	a := newNode(t, "a")
	b := newNode(t, "b")
	wire(t, b, "in", a, "message")

	g, err := graph.New([]*component.Instance{a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"message"}, g.NeededOutputs("a"))
	assert.Equal(t, []string{"text", "message"}, g.NeededOutputs("b"))
}

func TestBetween(t *testing.T) {
	start := newNode(t, "start")
	mid := newNode(t, "mid")
	end := newNode(t, "end")
	unrelated := newNode(t, "unrelated")
	wire(t, mid, "in", start, "text")
	wire(t, end, "in", mid, "text")

	g, err := graph.Between(start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "mid", "end"}, g.OrderIDs())
	assert.Equal(t, "start", g.Start())
	assert.Equal(t, "end", g.End())

	_, err = graph.Between(unrelated, end)
	assert.ErrorIs(t, err, domain.ErrUnknownInstance)
}

func ids(instances []*component.Instance) []string {
	out := make([]string, len(instances))
	for i, inst := range instances {
		out[i] = inst.ID()
	}
	return out
}
