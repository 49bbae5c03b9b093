package graph

import "github.com/aretw0/weft/pkg/component"

// Order returns the instances in build order.
func (g *Graph) Order() []*component.Instance {
	out := make([]*component.Instance, len(g.order))
	for i, u := range g.order {
		out[i] = g.instances[u]
	}
	return out
}

// OrderIDs returns the instance ids in build order.
func (g *Graph) OrderIDs() []string {
	out := make([]string, len(g.order))
	for i, u := range g.order {
		out[i] = g.instances[u].ID()
	}
	return out
}

// Instances returns the instances in declaration order.
func (g *Graph) Instances() []*component.Instance {
	out := make([]*component.Instance, len(g.instances))
	copy(out, g.instances)
	return out
}

// Instance returns an instance by id.
func (g *Graph) Instance(id string) (*component.Instance, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.instances[i], true
}

// Len returns the number of instances.
func (g *Graph) Len() int { return len(g.instances) }

// Edges returns every edge, grouped by consumer in declaration order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// EdgesFrom returns the edges leaving an instance.
func (g *Graph) EdgesFrom(id string) []Edge {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.collect(g.outgoing[i])
}

// EdgesTo returns the edges entering an instance, in declared input order.
func (g *Graph) EdgesTo(id string) []Edge {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.collect(g.incoming[i])
}

func (g *Graph) collect(idx []int) []Edge {
	out := make([]Edge, 0, len(idx))
	for _, ei := range idx {
		out = append(out, g.edges[ei])
	}
	return out
}

// IsTerminal reports whether no edge leaves the instance.
func (g *Graph) IsTerminal(id string) bool {
	i, ok := g.index[id]
	return ok && len(g.outgoing[i]) == 0
}

// Terminals returns the instances with no outgoing edges, in build order.
func (g *Graph) Terminals() []*component.Instance {
	var out []*component.Instance
	for _, u := range g.order {
		if len(g.outgoing[u]) == 0 {
			out = append(out, g.instances[u])
		}
	}
	return out
}

// NeededOutputs returns, in declared order, the outputs of an instance that a
// run must compute: every output wired downstream, and every output of a
// terminal instance.
func (g *Graph) NeededOutputs(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	def := g.instances[i].Definition()
	terminal := len(g.outgoing[i]) == 0

	wired := make(map[string]bool)
	for _, ei := range g.outgoing[i] {
		wired[g.edges[ei].SourceOutput] = true
	}

	var out []string
	for _, o := range def.Outputs {
		if terminal || wired[o.Name] {
			out = append(out, o.Name)
		}
	}
	return out
}

// Depth returns the longest path length from a root to the instance.
func (g *Graph) Depth(id string) (int, bool) {
	i, ok := g.index[id]
	if !ok {
		return 0, false
	}
	return g.depth[i], true
}

// Levels groups instances by depth. Every instance only depends on instances
// in earlier levels, so the members of one level may run concurrently.
// Within a level instances keep build order.
func (g *Graph) Levels() [][]*component.Instance {
	var levels [][]*component.Instance
	for _, u := range g.order {
		d := g.depth[u]
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], g.instances[u])
	}
	return levels
}

// Start returns the start instance id, if the graph was built with bounds.
func (g *Graph) Start() string { return g.start }

// End returns the end instance id, if the graph was built with bounds.
func (g *Graph) End() string { return g.end }
