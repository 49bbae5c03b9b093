package component

import "github.com/aretw0/weft/pkg/schema"

// Output is a named value a component can produce.
// Method names the component method computing it; the method must have the
// signature func(context.Context) (T, error).
type Output struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Method      string   `json:"method"`
	Types       []string `json:"types,omitempty"`
	Hidden      bool     `json:"hidden,omitempty"`
}

// NewOutput declares an output computed by method and producing types.
func NewOutput(name, method string, types ...string) Output {
	return Output{Name: name, DisplayName: name, Method: method, Types: types}
}

// Definition is the declared contract of a component type.
type Definition struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Inputs      []Input  `json:"inputs"`
	Outputs     []Output `json:"outputs"`
}

// Input returns the declared input by name.
func (d Definition) Input(name string) (Input, bool) {
	for _, in := range d.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Output returns the declared output by name.
func (d Definition) Output(name string) (Output, bool) {
	for _, out := range d.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// Schema returns the literal type of every input that declares one.
func (d Definition) Schema() schema.Schema {
	s := make(schema.Schema)
	for _, in := range d.Inputs {
		if in.Field != nil {
			s[in.Name] = in.Field
		}
	}
	return s
}
