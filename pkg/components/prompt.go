package components

import (
	"context"
	"fmt"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

// Prompt fills a {variable} template. Every variable becomes an input of its
// own, so the template must be known before the instance is created: set it
// with NewPrompt or Configure.
type Prompt struct {
	component.Base

	template string
	segments []segment
	vars     []string
}

// NewPrompt returns a Prompt configured for template.
func NewPrompt(template string) (*Prompt, error) {
	p := &Prompt{}
	if err := p.Configure(map[string]any{"template": template}); err != nil {
		return nil, err
	}
	return p, nil
}

// Configure parses params["template"] and declares one input per variable.
func (p *Prompt) Configure(params map[string]any) error {
	raw, ok := params["template"]
	if !ok {
		return nil
	}
	tmpl, ok := domain.AsText(raw)
	if !ok {
		return fmt.Errorf("prompt template: expected text, got %T", raw)
	}
	segs, err := parseTemplate(tmpl)
	if err != nil {
		return fmt.Errorf("prompt template: %w", err)
	}
	vars := variables(segs)
	for _, v := range vars {
		if v == "template" {
			return fmt.Errorf("prompt template: variable name %q is reserved", v)
		}
	}
	p.template, p.segments, p.vars = tmpl, segs, vars
	return nil
}

// Variables returns the template variables in order of appearance.
func (p *Prompt) Variables() []string { return p.vars }

func (p *Prompt) Definition() component.Definition {
	inputs := []component.Input{
		component.StrInput("template", component.Display("Template"), component.Default(p.template)),
	}
	for _, v := range p.vars {
		inputs = append(inputs, component.MessageTextInput(v, component.Default("")))
	}
	return component.Definition{
		Name:        "Prompt",
		DisplayName: "Prompt",
		Description: "Create a prompt template with dynamic variables.",
		Inputs:      inputs,
		Outputs: []component.Output{
			{Name: "prompt", DisplayName: "Prompt", Method: "BuildPrompt", Types: []string{domain.TypeMessage}},
		},
	}
}

func (p *Prompt) BuildPrompt(ctx context.Context) (domain.Message, error) {
	segs := p.segments
	if tmpl := p.Text("template"); tmpl != p.template {
		// The template input was overridden after configuration; only
		// variables declared at configuration time can be filled.
		parsed, err := parseTemplate(tmpl)
		if err != nil {
			return domain.Message{}, fmt.Errorf("prompt template: %w", err)
		}
		segs = parsed
	}

	declared := make(map[string]bool, len(p.vars))
	for _, v := range p.vars {
		declared[v] = true
	}
	text := render(segs, func(name string) (string, bool) {
		if !declared[name] {
			return "", false
		}
		return p.Text(name), true
	})

	msg := domain.Message{Text: text}
	p.SetStatus(text)
	return msg, nil
}
