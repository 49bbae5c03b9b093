package components

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

// Pass forwards its input message unchanged.
type Pass struct {
	component.Base
}

func (c *Pass) Definition() component.Definition {
	return component.Definition{
		Name:        "Pass",
		DisplayName: "Pass",
		Description: "Forwards the input message, unchanged.",
		Inputs: []component.Input{
			component.MessageInput("input_message", component.Display("Input Message"), component.Required()),
			component.MessageInput("ignored_message", component.Display("Ignored Message"), component.Advanced(),
				component.Info("A second message to be ignored. Used as a workaround for continuity.")),
		},
		Outputs: []component.Output{
			{Name: "output_message", DisplayName: "Output Message", Method: "PassMessage", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *Pass) PassMessage(ctx context.Context) (any, error) {
	msg := c.Input("input_message")
	c.SetStatus(msg)
	return msg, nil
}

// MessageToData converts a Message into a Data record.
// Any other input yields an error record rather than failing the run.
type MessageToData struct {
	component.Base
}

const messageToDataError = "Error converting Message to Data: Input must be a Message object"

func (c *MessageToData) Definition() component.Definition {
	return component.Definition{
		Name:        "MessagetoData",
		DisplayName: "Message to Data",
		Description: "Convert a Message object to a Data object",
		Inputs: []component.Input{
			component.MessageInput("message", component.Display("Message"),
				component.Info("The Message object to convert to a Data object")),
		},
		Outputs: []component.Output{
			{Name: "data", DisplayName: "Data", Method: "Convert", Types: []string{domain.TypeData}},
		},
	}
}

func (c *MessageToData) Convert(ctx context.Context) (domain.Data, error) {
	switch msg := c.Input("message").(type) {
	case domain.Message:
		return fromMessage(msg), nil
	case *domain.Message:
		if msg != nil {
			return fromMessage(*msg), nil
		}
	}
	c.Logger().Debug(messageToDataError, "input_type", fmt.Sprintf("%T", c.Input("message")))
	c.SetStatus(messageToDataError)
	c.Log(messageToDataError)
	return domain.NewData(map[string]any{"error": messageToDataError}), nil
}

func fromMessage(msg domain.Message) domain.Data {
	values := map[string]any{
		"text":        msg.Text,
		"sender":      msg.Sender,
		"sender_name": msg.SenderName,
		"session_id":  msg.SessionID,
	}
	if !msg.Timestamp.IsZero() {
		values["timestamp"] = msg.Timestamp
	}
	for k, v := range msg.Data {
		values[k] = v
	}
	return domain.NewData(values)
}

// Custom is the starting point for writing a component: it wraps its input
// in a Data record.
type Custom struct {
	component.Base
}

func (c *Custom) Definition() component.Definition {
	return component.Definition{
		Name:        "CustomComponent",
		DisplayName: "Custom Component",
		Description: "Use as a template to create your own component.",
		Inputs: []component.Input{
			component.MessageTextInput("input_value", component.Display("Input Value"),
				component.Default("Hello, World!"), component.ToolMode()),
		},
		Outputs: []component.Output{
			{Name: "output", DisplayName: "Output", Method: "BuildOutput", Types: []string{domain.TypeData}},
		},
	}
}

func (c *Custom) BuildOutput(ctx context.Context) (domain.Data, error) {
	data := domain.NewData(map[string]any{"value": c.Text("input_value")})
	c.SetStatus(data)
	return data, nil
}

// GetEnvVar reads an environment variable into a Message.
type GetEnvVar struct {
	component.Base

	// Lookup replaces os.LookupEnv, mostly for tests.
	Lookup func(string) (string, bool)
}

func (c *GetEnvVar) Definition() component.Definition {
	return component.Definition{
		Name:        "GetEnvVar",
		DisplayName: "Get env var",
		Description: "Get env var",
		Inputs: []component.Input{
			component.StrInput("env_var_name", component.Display("Env var name"), component.Required(),
				component.Info("Name of the environment variable to get")),
		},
		Outputs: []component.Output{
			{Name: "env_var_value", DisplayName: "Env var value", Method: "Value", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *GetEnvVar) Value(ctx context.Context) (domain.Message, error) {
	lookup := c.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	name := c.Text("env_var_name")
	v, ok := lookup(name)
	if !ok {
		return domain.Message{}, fmt.Errorf("environment variable %s not set", name)
	}
	return domain.Message{Text: v}, nil
}
