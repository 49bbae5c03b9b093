package dto

// Flow is the serialized shape of a flow document. It uses "mapstructure"
// tags so YAML and JSON documents decode through the same path.
type Flow struct {
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Start       string `json:"start" mapstructure:"start"`
	End         string `json:"end" mapstructure:"end"`
	Nodes       []Node `json:"nodes" mapstructure:"nodes"`
	Edges       []Edge `json:"edges" mapstructure:"edges"`
}

// Node is one component instance. Inputs maps an input name to the
// "node.output" reference feeding it.
type Node struct {
	ID     string            `json:"id" mapstructure:"id"`
	Type   string            `json:"type" mapstructure:"type"`
	Params map[string]any    `json:"params" mapstructure:"params"`
	Inputs map[string]string `json:"inputs" mapstructure:"inputs"`
}

// Edge accepts either the short "node.port" form (from/to) or the full keys.
type Edge struct {
	From         string `json:"from" mapstructure:"from"`
	To           string `json:"to" mapstructure:"to"`
	Source       string `json:"source" mapstructure:"source"`
	SourceOutput string `json:"source_output" mapstructure:"source_output"`
	Target       string `json:"target" mapstructure:"target"`
	TargetInput  string `json:"target_input" mapstructure:"target_input"`
}
