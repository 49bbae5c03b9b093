package dsl

import "github.com/aretw0/weft/pkg/flow"

type wire struct {
	edge flow.Edge
	err  error
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    flow.Node
	builder *Builder
	wires   []wire
}

// Param sets a literal input value.
func (n *NodeBuilder) Param(name string, value any) *NodeBuilder {
	if n.node.Params == nil {
		n.node.Params = make(map[string]any)
	}
	n.node.Params[name] = value
	return n
}

// Params sets several literal input values.
func (n *NodeBuilder) Params(values map[string]any) *NodeBuilder {
	for k, v := range values {
		n.Param(k, v)
	}
	return n
}

// From wires input to the output of another node.
func (n *NodeBuilder) From(input, source, output string) *NodeBuilder {
	n.wires = append(n.wires, wire{edge: flow.Edge{
		Source:       source,
		SourceOutput: output,
		Target:       n.node.ID,
		TargetInput:  input,
	}})
	return n
}

// Wire is From with the source given as "node.output".
func (n *NodeBuilder) Wire(input, port string) *NodeBuilder {
	source, output, err := flow.ParsePort(port)
	if err != nil {
		n.wires = append(n.wires, wire{err: err})
		return n
	}
	return n.From(input, source, output)
}

// Add returns to the flow builder and starts another node.
func (n *NodeBuilder) Add(id, typeName string) *NodeBuilder {
	return n.builder.Add(id, typeName)
}

// Flow returns the parent builder.
func (n *NodeBuilder) Flow() *Builder {
	return n.builder
}
