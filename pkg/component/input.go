package component

import (
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

// Input is a named slot on a component.
// It accepts either a literal value (checked against Field) or a reference to
// another instance's output whose types overlap InputTypes.
type Input struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name,omitempty"`
	Info        string      `json:"info,omitempty"`
	InputTypes  []string    `json:"input_types,omitempty"`
	Field       schema.Type `json:"-"`
	Required    bool        `json:"required,omitempty"`
	Value       any         `json:"value,omitempty"`
	Advanced    bool        `json:"advanced,omitempty"`
	ToolMode    bool        `json:"tool_mode,omitempty"`
	Hidden      bool        `json:"hidden,omitempty"`
	Secret      bool        `json:"secret,omitempty"`
}

// FieldType returns the literal type name, or "any".
func (in Input) FieldType() string {
	if in.Field == nil {
		return "any"
	}
	return in.Field.Name()
}

// Accepts reports whether a producer output with the given types may be wired
// into this input. Empty type lists on either side accept anything.
func (in Input) Accepts(produced []string) bool {
	if len(in.InputTypes) == 0 || len(produced) == 0 {
		return true
	}
	for _, p := range produced {
		for _, a := range in.InputTypes {
			if p == a {
				return true
			}
		}
	}
	return false
}

// InputOption configures an Input.
type InputOption func(*Input)

// Required marks the input as needing a value before any output runs.
func Required() InputOption {
	return func(in *Input) { in.Required = true }
}

// Default sets the declared default value.
func Default(v any) InputOption {
	return func(in *Input) { in.Value = v }
}

// Advanced hides the input from the basic form.
func Advanced() InputOption {
	return func(in *Input) { in.Advanced = true }
}

// ToolMode exposes the input as a tool argument.
func ToolMode() InputOption {
	return func(in *Input) { in.ToolMode = true }
}

// Hidden hides the input entirely.
func Hidden() InputOption {
	return func(in *Input) { in.Hidden = true }
}

// Info sets the help text.
func Info(s string) InputOption {
	return func(in *Input) { in.Info = s }
}

// Display sets the display name.
func Display(s string) InputOption {
	return func(in *Input) { in.DisplayName = s }
}

// Types replaces the accepted semantic types.
func Types(types ...string) InputOption {
	return func(in *Input) { in.InputTypes = types }
}

// Field replaces the literal type constraint.
func Field(t schema.Type) InputOption {
	return func(in *Input) { in.Field = t }
}

func newInput(name string, types []string, field schema.Type, opts []InputOption) Input {
	in := Input{Name: name, DisplayName: name, InputTypes: types, Field: field}
	for _, opt := range opts {
		opt(&in)
	}
	return in
}

// MessageInput accepts a Message from another component.
func MessageInput(name string, opts ...InputOption) Input {
	return newInput(name, []string{domain.TypeMessage}, nil, opts)
}

// MessageTextInput accepts a Message, or a literal string.
func MessageTextInput(name string, opts ...InputOption) Input {
	return newInput(name, []string{domain.TypeMessage, domain.TypeText}, schema.String(), opts)
}

// StrInput is a literal string.
func StrInput(name string, opts ...InputOption) Input {
	return newInput(name, nil, schema.String(), opts)
}

// MultilineInput is a literal string edited as a text area.
func MultilineInput(name string, opts ...InputOption) Input {
	return newInput(name, []string{domain.TypeMessage, domain.TypeText}, schema.String(), opts)
}

// SecretStrInput is a literal string that must not be echoed back.
func SecretStrInput(name string, opts ...InputOption) Input {
	in := newInput(name, nil, schema.String(), opts)
	in.Secret = true
	return in
}

// IntInput is a literal integer.
func IntInput(name string, opts ...InputOption) Input {
	return newInput(name, nil, schema.Int(), opts)
}

// FloatInput is a literal float.
func FloatInput(name string, opts ...InputOption) Input {
	return newInput(name, nil, schema.Float(), opts)
}

// BoolInput is a literal boolean.
func BoolInput(name string, opts ...InputOption) Input {
	return newInput(name, nil, schema.Bool(), opts)
}

// DictInput is a literal string-keyed map.
func DictInput(name string, opts ...InputOption) Input {
	return newInput(name, nil, schema.Dict(), opts)
}

// DataInput accepts Data records.
func DataInput(name string, opts ...InputOption) Input {
	return newInput(name, []string{domain.TypeData}, nil, opts)
}

// HandleInput accepts only wired values of the given semantic types.
func HandleInput(name string, types []string, opts ...InputOption) Input {
	return newInput(name, types, nil, opts)
}
