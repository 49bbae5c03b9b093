package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/registry"
	"github.com/aretw0/weft/pkg/schema"
)

type echo struct {
	component.Base
	configured map[string]any
}

func (e *echo) Definition() component.Definition {
	return component.Definition{
		Name: "Echo",
		Inputs: []component.Input{
			component.StrInput("value", component.Default("hi")),
			component.IntInput("times", component.Default(1)),
		},
		Outputs: []component.Output{component.NewOutput("text", "Run", domain.TypeText)},
	}
}

func (e *echo) Run(ctx context.Context) (string, error) { return e.Text("value"), nil }

func (e *echo) Configure(params map[string]any) error {
	e.configured = params
	return nil
}

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("echo", func() component.Component { return &echo{} })
	r.Register("alias", func() component.Component { return &echo{} })

	assert.True(t, r.Has("echo"))
	assert.False(t, r.Has("missing"))
	assert.Equal(t, []string{"alias", "echo"}, r.Types())

	def, err := r.Describe("echo")
	require.NoError(t, err)
	assert.Equal(t, "Echo", def.Name)
}

func TestRegistry_Instantiate(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("echo", func() component.Component { return &echo{} })

	inst, err := r.Instantiate("e1", "echo", map[string]any{"value": "yo"})
	require.NoError(t, err)
	assert.Equal(t, "e1", inst.ID())

	v, state := inst.Lookup("value")
	assert.Equal(t, "yo", v)
	assert.Equal(t, component.SlotLiteral, state)
	assert.Equal(t, map[string]any{"value": "yo"}, inst.Component().(*echo).configured)

	def, err := r.Instantiate("e2", "echo", nil)
	require.NoError(t, err)
	v, state = def.Lookup("value")
	assert.Equal(t, "hi", v)
	assert.Equal(t, component.SlotDefault, state)
}

func TestRegistry_Errors(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("echo", func() component.Component { return &echo{} })

	_, err := r.Instantiate("x", "nope", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownComponentType)

	_, err = r.Instantiate("x", "echo", map[string]any{"bogus": 1})
	assert.ErrorIs(t, err, domain.ErrUnknownInput)

	_, err = r.Instantiate("", "echo", nil)
	assert.ErrorIs(t, err, domain.ErrComponentDefinition)
}

func TestRegistry_InstantiateReportsEveryBadLiteral(t *testing.T) {
	r := registry.NewRegistry()
	r.Register("echo", func() component.Component { return &echo{} })

	_, err := r.Instantiate("x", "echo", map[string]any{"value": 3, "times": "twice"})
	require.Error(t, err)

	verrs := schema.ValidationErrors(err)
	require.Len(t, verrs, 2)
	assert.Equal(t, "times", verrs[0].Key)
	assert.Equal(t, "value", verrs[1].Key)
}
