package flow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Definition is a flow as authored: nodes, edges and optional bounds.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Start       string `json:"start,omitempty" yaml:"start,omitempty"`
	End         string `json:"end,omitempty" yaml:"end,omitempty"`
	Nodes       []Node `json:"nodes" yaml:"nodes"`
	Edges       []Edge `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Node declares one component instance.
type Node struct {
	ID     string         `json:"id" yaml:"id"`
	Type   string         `json:"type" yaml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Edge wires Source.SourceOutput into Target.TargetInput.
type Edge struct {
	Source       string `json:"source" yaml:"source"`
	SourceOutput string `json:"source_output" yaml:"source_output"`
	Target       string `json:"target" yaml:"target"`
	TargetInput  string `json:"target_input" yaml:"target_input"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.Source, e.SourceOutput, e.Target, e.TargetInput)
}

// ParsePort splits "node.port" at the last dot.
func ParsePort(s string) (node, port string, err error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("invalid port reference %q, want node.port", s)
	}
	return s[:i], s[i+1:], nil
}

// Node returns the node with id.
func (d *Definition) Node(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks the document structure: unique non-empty ids, typed
// nodes, edges and bounds naming declared nodes, one source per input.
// Component contracts are checked later, by Build.
func (d *Definition) Validate() error {
	var errs []error
	if len(d.Nodes) == 0 {
		errs = append(errs, errors.New("flow has no nodes"))
	}
	ids := make(map[string]bool, len(d.Nodes))
	for i, n := range d.Nodes {
		switch {
		case n.ID == "":
			errs = append(errs, fmt.Errorf("node #%d: missing id", i))
		case strings.Contains(n.ID, "."):
			errs = append(errs, fmt.Errorf("node %q: id must not contain '.'", n.ID))
		case ids[n.ID]:
			errs = append(errs, fmt.Errorf("node %q: declared twice", n.ID))
		}
		if n.Type == "" {
			errs = append(errs, fmt.Errorf("node %q: missing type", n.ID))
		}
		ids[n.ID] = true
	}

	wired := make(map[string]bool, len(d.Edges))
	for _, e := range d.Edges {
		if e.SourceOutput == "" || e.TargetInput == "" {
			errs = append(errs, fmt.Errorf("edge %s: missing port", e))
		}
		if !ids[e.Source] {
			errs = append(errs, fmt.Errorf("edge %s: unknown source %q", e, e.Source))
		}
		if !ids[e.Target] {
			errs = append(errs, fmt.Errorf("edge %s: unknown target %q", e, e.Target))
		}
		key := e.Target + "." + e.TargetInput
		if wired[key] {
			errs = append(errs, fmt.Errorf("input %s: wired more than once", key))
		}
		wired[key] = true
	}

	if (d.Start == "") != (d.End == "") {
		errs = append(errs, errors.New("start and end must be set together"))
	}
	for _, b := range []string{d.Start, d.End} {
		if b != "" && !ids[b] {
			errs = append(errs, fmt.Errorf("bound %q: unknown node", b))
		}
	}
	return errors.Join(errs...)
}

// Types returns the distinct component types used, sorted.
func (d *Definition) Types() []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range d.Nodes {
		if !seen[n.Type] {
			seen[n.Type] = true
			out = append(out, n.Type)
		}
	}
	sort.Strings(out)
	return out
}
