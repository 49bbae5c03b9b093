package component_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

type greeter struct {
	component.Base
}

func (g *greeter) Definition() component.Definition {
	return component.Definition{
		Name: "Greeter",
		Inputs: []component.Input{
			component.MessageTextInput("name", component.Required()),
			component.IntInput("times", component.Default(1)),
			component.BoolInput("shout"),
		},
		Outputs: []component.Output{
			component.NewOutput("greeting", "Greet", domain.TypeText),
		},
	}
}

func (g *greeter) Greet(ctx context.Context) (string, error) {
	return "hello " + g.Text("name"), nil
}

type badSignature struct {
	component.Base
}

func (b *badSignature) Definition() component.Definition {
	return component.Definition{
		Name:    "Bad",
		Outputs: []component.Output{component.NewOutput("out", "Compute")},
	}
}

func (b *badSignature) Compute() string { return "" }

type dupInputs struct {
	component.Base
}

func (d *dupInputs) Definition() component.Definition {
	return component.Definition{
		Name:   "Dup",
		Inputs: []component.Input{component.StrInput("a"), component.StrInput("a")},
	}
}

type missingMethod struct {
	component.Base
}

func (m *missingMethod) Definition() component.Definition {
	return component.Definition{
		Name:    "Missing",
		Outputs: []component.Output{component.NewOutput("out", "Nope")},
	}
}

func TestNew_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		impl  component.Component
		field string
	}{
		{"empty id", "", &greeter{}, ""},
		{"dotted id", "chat.input", &greeter{}, ""},
		{"wrong signature", "bad", &badSignature{}, "Compute"},
		{"duplicate input", "dup", &dupInputs{}, "a"},
		{"missing method", "missing", &missingMethod{}, "Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := component.New(tt.id, tt.impl)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrComponentDefinition)

			var defErr *domain.ComponentDefinitionError
			require.ErrorAs(t, err, &defErr)
			assert.Equal(t, tt.field, defErr.Field)
		})
	}
}

func TestSet_LiteralAndDefault(t *testing.T) {
	inst := component.MustNew("g", &greeter{})

	v, state := inst.Lookup("times")
	assert.Equal(t, component.SlotDefault, state)
	assert.Equal(t, 1, v)

	_, state = inst.Lookup("name")
	assert.Equal(t, component.SlotUnset, state)

	require.NoError(t, inst.Set("name", "world"))
	v, state = inst.Lookup("name")
	assert.Equal(t, component.SlotLiteral, state)
	assert.Equal(t, "world", v)

	out, err := inst.Invoke(context.Background(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestSet_NilUnbinds(t *testing.T) {
	inst := component.MustNew("g", &greeter{})

	require.NoError(t, inst.Set("name", nil))
	_, state := inst.Lookup("name")
	assert.Equal(t, component.SlotUnset, state)

	require.NoError(t, inst.Set("name", "world"))
	require.NoError(t, inst.Set("name", nil))
	_, state = inst.Lookup("name")
	assert.Equal(t, component.SlotUnset, state)
	assert.NotContains(t, inst.Values(), "name")

	require.NoError(t, inst.Set("times", 3))
	require.NoError(t, inst.Set("times", nil))
	v, state := inst.Lookup("times")
	assert.Equal(t, component.SlotDefault, state)
	assert.Equal(t, 1, v)
}

func TestSetStatusIfUnchanged(t *testing.T) {
	inst := component.MustNew("g", &greeter{})

	ver := inst.StatusVersion()
	assert.True(t, inst.SetStatusIfUnchanged(ver, "computed"))
	assert.Equal(t, "computed", inst.Status())

	ver = inst.StatusVersion()
	inst.SetStatus("set by component")
	assert.False(t, inst.SetStatusIfUnchanged(ver, "computed"))
	assert.Equal(t, "set by component", inst.Status())
}

func TestClaim_Exclusive(t *testing.T) {
	inst := component.MustNew("g", &greeter{})

	require.NoError(t, inst.Claim("run-1"))
	err := inst.Claim("run-2")
	assert.ErrorIs(t, err, domain.ErrInstanceBusy)
	assert.Contains(t, err.Error(), "run-1")

	inst.Release("run-2")
	assert.ErrorIs(t, inst.Claim("run-2"), domain.ErrInstanceBusy)

	inst.Release("run-1")
	assert.NoError(t, inst.Claim("run-2"))
}

func TestSet_Errors(t *testing.T) {
	inst := component.MustNew("g", &greeter{})

	err := inst.Set("unknown", "x")
	assert.ErrorIs(t, err, domain.ErrUnknownInput)

	err = inst.Set("times", "three")
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "times", verr.Key)

	other := component.MustNew("other", &greeter{})
	err = inst.Set("name", other.Output("nope"))
	assert.ErrorIs(t, err, domain.ErrUnknownOutput)
}

func TestSet_RefIsPendingUntilResolved(t *testing.T) {
	producer := component.MustNew("producer", &greeter{})
	consumer := component.MustNew("consumer", &greeter{})

	require.NoError(t, consumer.Set("name", producer.Output("greeting")))

	v, state := consumer.Lookup("name")
	assert.Equal(t, component.SlotPending, state)
	assert.Nil(t, v)
	assert.True(t, state.Wired())

	bindings := consumer.Bindings()
	require.Len(t, bindings, 1)
	assert.Equal(t, "name", bindings[0].Input)
	assert.Equal(t, "producer.greeting", bindings[0].Ref.String())

	require.NoError(t, consumer.Resolve("name", "hello there"))
	v, state = consumer.Lookup("name")
	assert.Equal(t, component.SlotResolved, state)
	assert.Equal(t, "hello there", v)

	assert.Error(t, consumer.Resolve("times", 2), "literal inputs cannot be resolved")
}

func TestSetAll_SortedAndStopsAtFirstError(t *testing.T) {
	inst := component.MustNew("g", &greeter{})

	err := inst.SetAll(map[string]any{"name": "a", "times": "bad", "zzz": 1})
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrUnknownInput), "times is validated before zzz")

	v, _ := inst.Lookup("name")
	assert.Equal(t, "a", v)
}

type decoded struct {
	Name  string `input:"name"`
	Times int    `input:"times"`
}

func TestBase_Accessors(t *testing.T) {
	g := &greeter{}
	inst := component.MustNew("g", g)
	require.NoError(t, inst.SetAll(map[string]any{"name": domain.Message{Text: "ada"}, "times": 3, "shout": true}))

	assert.Equal(t, "g", g.ID())
	assert.Equal(t, "ada", g.Text("name"))
	n, err := g.Int("times")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, g.Bool("shout"))

	require.NoError(t, inst.Set("name", "ada"))
	var d decoded
	require.NoError(t, g.Decode(&d))
	assert.Equal(t, decoded{Name: "ada", Times: 3}, d)

	g.SetStatus("done")
	assert.Equal(t, "done", inst.Status())
}

func TestBase_LogAndService(t *testing.T) {
	g := &greeter{}
	inst := component.MustNew("g", g)

	var logs []domain.Log
	inst.Attach(component.Env{RunID: "run-1", Emit: func(l domain.Log) { logs = append(logs, l) }})

	g.Log("plain")
	g.Log(map[string]any{"k": 1}, "custom")
	require.Len(t, logs, 2)
	assert.Equal(t, domain.Log{Name: "g", Message: "plain", Type: domain.LogTypeText}, logs[0])
	assert.Equal(t, "custom", logs[1].Name)
	assert.Equal(t, domain.LogTypeObject, logs[1].Type)

	_, err := g.Service(context.Background(), domain.ServiceSharedCache)
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}
