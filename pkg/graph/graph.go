package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

// Edge wires a producer output into a consumer input.
type Edge struct {
	Source       string `json:"source"`
	SourceOutput string `json:"source_output"`
	Target       string `json:"target"`
	TargetInput  string `json:"target_input"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.Source, e.SourceOutput, e.Target, e.TargetInput)
}

// Graph is an immutable, validated component DAG.
//
// It is safe for concurrent read access. The instances it holds are not: the
// engine owns their slots while a run is in progress.
type Graph struct {
	instances []*component.Instance // declaration order
	index     map[string]int

	edges    []Edge
	outgoing [][]int // edge indices by instance index
	incoming [][]int

	order []int
	depth []int

	start, end string
}

type options struct {
	start, end    string
	skipTypeCheck bool
}

// Option configures graph construction.
type Option func(*options)

// WithBounds records the start and end instances of the flow.
func WithBounds(start, end string) Option {
	return func(o *options) {
		o.start = start
		o.end = end
	}
}

// WithoutTypeCheck skips the producer/consumer semantic type check.
func WithoutTypeCheck() Option {
	return func(o *options) { o.skipTypeCheck = true }
}

// New builds a graph from instances and the Refs bound on their inputs.
//
// Validation runs immediately and rejects, in this order:
//   - duplicate instance ids and Refs to instances outside the set
//   - any cycle (reported alone as *domain.GraphCycleError)
//   - required inputs with no literal, default or wiring
//   - edges whose producer and consumer types are disjoint
func New(instances []*component.Instance, opts ...Option) (*Graph, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{
		instances: make([]*component.Instance, 0, len(instances)),
		index:     make(map[string]int, len(instances)),
		start:     o.start,
		end:       o.end,
	}

	var errs []error
	for _, inst := range instances {
		if inst == nil {
			errs = append(errs, fmt.Errorf("%w: nil instance", domain.ErrUnknownInstance))
			continue
		}
		if _, dup := g.index[inst.ID()]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", domain.ErrDuplicateInstance, inst.ID()))
			continue
		}
		g.index[inst.ID()] = len(g.instances)
		g.instances = append(g.instances, inst)
	}

	for _, id := range []string{o.start, o.end} {
		if id != "" {
			if _, ok := g.index[id]; !ok {
				errs = append(errs, fmt.Errorf("%w: bound %q", domain.ErrUnknownInstance, id))
			}
		}
	}

	g.outgoing = make([][]int, len(g.instances))
	g.incoming = make([][]int, len(g.instances))
	for ti, inst := range g.instances {
		for _, b := range inst.Bindings() {
			si, ok := g.index[b.Ref.Source.ID()]
			if !ok || g.instances[si] != b.Ref.Source {
				errs = append(errs, fmt.Errorf("%w: %q (wired into %s.%s)", domain.ErrUnknownInstance, b.Ref.Source.ID(), inst.ID(), b.Input))
				continue
			}
			ei := len(g.edges)
			g.edges = append(g.edges, Edge{
				Source:       b.Ref.Source.ID(),
				SourceOutput: b.Ref.Output,
				Target:       inst.ID(),
				TargetInput:  b.Input,
			})
			g.outgoing[si] = append(g.outgoing[si], ei)
			g.incoming[ti] = append(g.incoming[ti], ei)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := g.sort(); err != nil {
		return nil, err
	}
	g.depth = g.computeDepth()

	if err := g.validate(o.skipTypeCheck); err != nil {
		return nil, err
	}
	return g, nil
}

// sort runs Kahn's algorithm with the ready set ordered by declaration index.
func (g *Graph) sort() error {
	indeg := make([]int, len(g.instances))
	for i := range g.instances {
		indeg[i] = len(g.incoming[i])
	}

	var ready []int
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, len(g.instances))
	for len(ready) > 0 {
		u := ready[0]
		ready = ready[1:]
		order = append(order, u)

		for _, ei := range g.outgoing[u] {
			v := g.index[g.edges[ei].Target]
			indeg[v]--
			if indeg[v] == 0 {
				pos := sort.SearchInts(ready, v)
				ready = append(ready, 0)
				copy(ready[pos+1:], ready[pos:])
				ready[pos] = v
			}
		}
	}

	if len(order) != len(g.instances) {
		var remaining []string
		for i, d := range indeg {
			if d > 0 {
				remaining = append(remaining, g.instances[i].ID())
			}
		}
		sort.Strings(remaining)
		return &domain.GraphCycleError{Instances: remaining}
	}
	g.order = order
	return nil
}

// computeDepth assigns each instance the length of the longest path from a root.
func (g *Graph) computeDepth() []int {
	depth := make([]int, len(g.instances))
	for _, u := range g.order {
		for _, ei := range g.incoming[u] {
			p := g.index[g.edges[ei].Source]
			if depth[p]+1 > depth[u] {
				depth[u] = depth[p] + 1
			}
		}
	}
	return depth
}

func (g *Graph) validate(skipTypeCheck bool) error {
	var errs []error
	for _, u := range g.order {
		inst := g.instances[u]
		for _, in := range inst.Definition().Inputs {
			if !in.Required {
				continue
			}
			if _, state := inst.Lookup(in.Name); state == component.SlotUnset {
				errs = append(errs, &domain.MissingInputError{Component: inst.ID(), Input: in.Name})
			}
		}
	}

	if !skipTypeCheck {
		for _, e := range g.edges {
			src := g.instances[g.index[e.Source]].Definition()
			dst := g.instances[g.index[e.Target]].Definition()
			out, _ := src.Output(e.SourceOutput)
			in, _ := dst.Input(e.TargetInput)
			if !in.Accepts(out.Types) {
				errs = append(errs, &domain.EdgeTypeError{
					Source:       e.Source,
					SourceOutput: e.SourceOutput,
					Target:       e.Target,
					TargetInput:  e.TargetInput,
					Produced:     out.Types,
					Accepted:     in.InputTypes,
				})
			}
		}
	}
	return errors.Join(errs...)
}

// Between builds the graph of every instance upstream of end and checks that
// start is one of them.
func Between(start, end *component.Instance, opts ...Option) (*Graph, error) {
	if start == nil || end == nil {
		return nil, fmt.Errorf("%w: start and end are required", domain.ErrUnknownInstance)
	}

	var collected []*component.Instance
	seen := map[*component.Instance]bool{}
	var visit func(*component.Instance)
	visit = func(inst *component.Instance) {
		if seen[inst] {
			return
		}
		seen[inst] = true
		for _, b := range inst.Bindings() {
			visit(b.Ref.Source)
		}
		collected = append(collected, inst)
	}
	visit(end)

	if !seen[start] {
		return nil, fmt.Errorf("%w: start %q is not upstream of end %q", domain.ErrUnknownInstance, start.ID(), end.ID())
	}
	return New(collected, append(opts, WithBounds(start.ID(), end.ID()))...)
}
