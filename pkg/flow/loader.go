package flow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/weft/internal/dto"
)

// Supported document formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatOf picks the document format from a file extension. Anything other
// than .json is read as YAML.
func FormatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and parses the flow document at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow %s: %w", path, err)
	}
	def, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// Parse decodes a flow document and validates its structure.
func Parse(data []byte, format string) (*Definition, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse flow json: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse flow yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported flow format %q", format)
	}

	var doc dto.Flow
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &doc,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}

	def, err := fromDTO(doc)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

func fromDTO(doc dto.Flow) (*Definition, error) {
	def := &Definition{
		Name:        doc.Name,
		Description: doc.Description,
		Start:       doc.Start,
		End:         doc.End,
	}

	for _, n := range doc.Nodes {
		def.Nodes = append(def.Nodes, Node{ID: n.ID, Type: n.Type, Params: n.Params})
	}

	for i, e := range doc.Edges {
		edge, err := edgeFromDTO(e)
		if err != nil {
			return nil, fmt.Errorf("edge #%d: %w", i, err)
		}
		def.Edges = append(def.Edges, edge)
	}

	// Node-local inputs become edges after the explicit ones, by input name.
	for _, n := range doc.Nodes {
		names := make([]string, 0, len(n.Inputs))
		for name := range n.Inputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			src, out, err := ParsePort(n.Inputs[name])
			if err != nil {
				return nil, fmt.Errorf("node %q input %q: %w", n.ID, name, err)
			}
			def.Edges = append(def.Edges, Edge{Source: src, SourceOutput: out, Target: n.ID, TargetInput: name})
		}
	}
	return def, nil
}

func edgeFromDTO(e dto.Edge) (Edge, error) {
	edge := Edge{
		Source:       e.Source,
		SourceOutput: e.SourceOutput,
		Target:       e.Target,
		TargetInput:  e.TargetInput,
	}
	if e.From != "" {
		if edge.Source != "" || edge.SourceOutput != "" {
			return Edge{}, fmt.Errorf("both from and source given")
		}
		src, out, err := ParsePort(e.From)
		if err != nil {
			return Edge{}, err
		}
		edge.Source, edge.SourceOutput = src, out
	}
	if e.To != "" {
		if edge.Target != "" || edge.TargetInput != "" {
			return Edge{}, fmt.Errorf("both to and target given")
		}
		dst, in, err := ParsePort(e.To)
		if err != nil {
			return Edge{}, err
		}
		edge.Target, edge.TargetInput = dst, in
	}
	return edge, nil
}

// Marshal encodes d in the given format.
func Marshal(d *Definition, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	case FormatYAML, "":
		return yaml.Marshal(d)
	default:
		return nil, fmt.Errorf("unsupported flow format %q", format)
	}
}
