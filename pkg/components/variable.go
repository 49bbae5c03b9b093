package components

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

type variableGetter interface {
	Get(ctx context.Context, name string) (string, error)
}

// GetVariable reads a stored variable from the variable service.
type GetVariable struct {
	component.Base
}

func (c *GetVariable) Definition() component.Definition {
	return component.Definition{
		Name:        "GetVariable",
		DisplayName: "Get Variable",
		Description: "Read a variable from the variable service.",
		Inputs: []component.Input{
			component.StrInput("variable_name", component.Display("Variable Name"), component.Required()),
			component.MessageTextInput("default", component.Advanced(),
				component.Info("Returned when the variable does not exist. Unset means not-found is an error.")),
		},
		Outputs: []component.Output{
			{Name: "value", DisplayName: "Value", Method: "Value", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *GetVariable) Value(ctx context.Context) (domain.Message, error) {
	svc, err := c.Service(ctx, domain.ServiceVariable)
	if err != nil {
		return domain.Message{}, err
	}
	vars, ok := svc.(variableGetter)
	if !ok {
		return domain.Message{}, fmt.Errorf("service %s has unexpected type %T", domain.ServiceVariable, svc)
	}

	name := c.Text("variable_name")
	v, err := vars.Get(ctx, name)
	if errors.Is(err, domain.ErrVariableNotFound) {
		if def, state := c.Lookup("default"); state != component.SlotUnset {
			c.Logger().Debug("variable not found, using default", "variable", name)
			s, _ := domain.AsText(def)
			return domain.Message{Text: s}, nil
		}
	}
	if err != nil {
		return domain.Message{}, err
	}
	c.SetStatus(name)
	return domain.Message{Text: v}, nil
}
