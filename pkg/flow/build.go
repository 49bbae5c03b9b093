package flow

import (
	"errors"
	"fmt"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/graph"
)

// Catalog turns a node into a bound component instance.
// *registry.Registry implements it.
type Catalog interface {
	Instantiate(id, typeName string, params map[string]any) (*component.Instance, error)
}

// Build instantiates every node through catalog, wires the edges and
// assembles the graph. When the definition has bounds, only instances
// between start and end are kept.
func Build(def *Definition, catalog Catalog, opts ...graph.Option) (*graph.Graph, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	instances := make([]*component.Instance, 0, len(def.Nodes))
	byID := make(map[string]*component.Instance, len(def.Nodes))
	var errs []error
	for _, n := range def.Nodes {
		inst, err := catalog.Instantiate(n.ID, n.Type, n.Params)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		instances = append(instances, inst)
		byID[n.ID] = inst
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	for _, e := range def.Edges {
		src, dst := byID[e.Source], byID[e.Target]
		if err := dst.Set(e.TargetInput, src.Output(e.SourceOutput)); err != nil {
			errs = append(errs, fmt.Errorf("edge %s: %w", e, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if def.Start != "" {
		return graph.Between(byID[def.Start], byID[def.End], opts...)
	}
	return graph.New(instances, opts...)
}
