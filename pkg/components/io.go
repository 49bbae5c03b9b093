package components

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

// TextInput turns a literal text into a Message.
type TextInput struct {
	component.Base
}

func (c *TextInput) Definition() component.Definition {
	return component.Definition{
		Name:        "TextInput",
		DisplayName: "Text Input",
		Description: "Get user text inputs.",
		Inputs: []component.Input{
			component.MultilineInput("input_value", component.Display("Text"), component.Info("Text to be passed as input.")),
		},
		Outputs: []component.Output{
			{Name: "text", DisplayName: "Output Text", Method: "TextResponse", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *TextInput) TextResponse(ctx context.Context) (domain.Message, error) {
	msg := domain.Message{Text: c.Text("input_value")}
	c.SetStatus(msg.Text)
	return msg, nil
}

// ChatInput produces the user's chat message.
type ChatInput struct {
	component.Base
}

func (c *ChatInput) Definition() component.Definition {
	return component.Definition{
		Name:        "ChatInput",
		DisplayName: "Chat Input",
		Description: "Get chat inputs from the Playground.",
		Inputs: []component.Input{
			component.MultilineInput("input_value", component.Display("Input Text"), component.Default("")),
			component.StrInput("sender",
				component.Field(schema.OneOf(domain.SenderMachine, domain.SenderUser)),
				component.Default(domain.SenderUser), component.Advanced()),
			component.MessageTextInput("sender_name", component.Default(domain.SenderNameUser), component.Advanced()),
			component.MessageTextInput("session_id", component.Advanced(),
				component.Info("The session ID of the chat. If empty, the current run id is used.")),
		},
		Outputs: []component.Output{
			{Name: "message", DisplayName: "Chat Message", Method: "MessageResponse", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *ChatInput) MessageResponse(ctx context.Context) (domain.Message, error) {
	msg := domain.Message{
		Text:       c.Text("input_value"),
		Sender:     c.Text("sender"),
		SenderName: c.Text("sender_name"),
		SessionID:  c.Text("session_id"),
		Timestamp:  time.Now().UTC(),
	}
	if msg.SessionID == "" {
		msg.SessionID = c.RunID()
	}
	c.SetStatus(msg)
	return msg, nil
}

// ChatOutput renders whatever reaches it as a Machine chat message.
type ChatOutput struct {
	component.Base
}

func (c *ChatOutput) Definition() component.Definition {
	return component.Definition{
		Name:        "ChatOutput",
		DisplayName: "Chat Output",
		Description: "Display a chat message in the Playground.",
		Inputs: []component.Input{
			component.HandleInput("input_value",
				[]string{domain.TypeData, domain.TypeDataFrame, domain.TypeMessage, domain.TypeText},
				component.Display("Inputs"), component.Required(), component.Field(schema.Any())),
			component.StrInput("sender",
				component.Field(schema.OneOf(domain.SenderMachine, domain.SenderUser)),
				component.Default(domain.SenderMachine), component.Advanced()),
			component.MessageTextInput("sender_name", component.Default(domain.SenderNameAI), component.Advanced()),
			component.MessageTextInput("session_id", component.Advanced()),
			component.MessageTextInput("data_template", component.Default("{text}"), component.Advanced(),
				component.Info("Template to convert Data to Text. Unknown keys are left as is.")),
		},
		Outputs: []component.Output{
			{Name: "message", DisplayName: "Output Message", Method: "MessageResponse", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *ChatOutput) MessageResponse(ctx context.Context) (domain.Message, error) {
	text, err := c.convert(c.Input("input_value"))
	if err != nil {
		return domain.Message{}, err
	}

	var msg domain.Message
	if in, ok := c.Input("input_value").(domain.Message); ok {
		msg = in
	}
	msg.Text = text
	msg.Sender = c.Text("sender")
	msg.SenderName = c.Text("sender_name")
	if sid := c.Text("session_id"); sid != "" {
		msg.SessionID = sid
	}
	if msg.SessionID == "" {
		msg.SessionID = c.RunID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	c.SetStatus(msg)
	return msg, nil
}

func (c *ChatOutput) convert(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("input_value of %q is empty", c.ID())
	case string:
		return t, nil
	case domain.Message:
		return t.Text, nil
	case domain.Data:
		return formatData(c.Text("data_template"), t), nil
	case []domain.Data:
		parts := make([]string, len(t))
		for i, d := range t {
			parts[i] = formatData(c.Text("data_template"), d)
		}
		return strings.Join(parts, "\n"), nil
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, err := c.convert(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), nil
	default:
		if s, ok := domain.AsText(v); ok {
			return s, nil
		}
		return "", fmt.Errorf("input_value of %q: unsupported type %T", c.ID(), v)
	}
}
