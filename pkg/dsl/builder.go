package dsl

import (
	"fmt"

	"github.com/aretw0/weft/pkg/flow"
)

// Builder manages the flow construction.
type Builder struct {
	def   flow.Definition
	nodes map[string]*NodeBuilder
	order []*NodeBuilder
}

// New creates a new flow builder.
func New(name string) *Builder {
	return &Builder{
		def:   flow.Definition{Name: name},
		nodes: make(map[string]*NodeBuilder),
	}
}

// Describe sets the flow description.
func (b *Builder) Describe(text string) *Builder {
	b.def.Description = text
	return b
}

// Add creates a new node of the given component type.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id, typeName string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    flow.Node{ID: id, Type: typeName},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, nb)
	return nb
}

// Between bounds the flow to the instances from start up to end.
func (b *Builder) Between(start, end string) *Builder {
	b.def.Start, b.def.End = start, end
	return b
}

// Build compiles the nodes, in the order they were added, into a validated
// flow definition.
func (b *Builder) Build() (*flow.Definition, error) {
	def := b.def
	def.Nodes = make([]flow.Node, 0, len(b.order))
	def.Edges = nil
	for _, nb := range b.order {
		def.Nodes = append(def.Nodes, nb.node)
	}
	for _, nb := range b.order {
		for _, w := range nb.wires {
			if w.err != nil {
				return nil, fmt.Errorf("node %q: %w", nb.node.ID, w.err)
			}
			def.Edges = append(def.Edges, w.edge)
		}
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build flow: %w", err)
	}
	return &def, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *flow.Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}
