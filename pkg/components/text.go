package components

import (
	"context"
	"strings"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

// Text operations understood by TextOperation.
const (
	OpNone  = "none"
	OpUpper = "upper"
	OpLower = "lower"
	OpTrim  = "trim"
)

// TextOperation transforms text and wraps it with an optional prefix and suffix.
type TextOperation struct {
	component.Base
}

func (c *TextOperation) Definition() component.Definition {
	return component.Definition{
		Name:        "TextOperation",
		DisplayName: "Text Operation",
		Description: "Transform text: change case, trim, add a prefix or suffix.",
		Inputs: []component.Input{
			component.MessageTextInput("text", component.Display("Text"), component.Required()),
			component.StrInput("operation",
				component.Field(schema.OneOf(OpNone, OpUpper, OpLower, OpTrim)),
				component.Default(OpNone)),
			component.MessageTextInput("prefix", component.Default("")),
			component.MessageTextInput("suffix", component.Default("")),
		},
		Outputs: []component.Output{
			{Name: "text", DisplayName: "Text", Method: "Transform", Types: []string{domain.TypeMessage}},
		},
	}
}

func (c *TextOperation) Transform(ctx context.Context) (domain.Message, error) {
	text := c.Text("text")
	switch c.Text("operation") {
	case OpUpper:
		text = strings.ToUpper(text)
	case OpLower:
		text = strings.ToLower(text)
	case OpTrim:
		text = strings.TrimSpace(text)
	}
	text = c.Text("prefix") + text + c.Text("suffix")
	c.SetStatus(text)
	return domain.Message{Text: text}, nil
}
