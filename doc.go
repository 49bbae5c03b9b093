/*
Package weft assembles and runs component flows: directed acyclic graphs of
typed components whose outputs feed other components' inputs.

# Concept

A component declares named inputs and outputs. Each output is computed by a
method of the component, and inputs receive either literal values or a
reference to another instance's output. weft resolves the references into a
deterministic build order, invokes every needed output exactly once per run
and reports a status entry per output plus any logs the components emit.

Components reach shared resources (a process-wide cache, settings, variable
storage, tracing) through a lazy service registry, so expensive objects such
as vector stores survive across runs.

# Key Features

  - Deterministic Execution: the same graph always runs in the same order.
  - Early Validation: cycles, missing required inputs and incompatible edges
    are reported before any component runs.
  - Run-scoped Memoization: an output consumed by many components runs once,
    and a failed run can be retried without recomputing what succeeded.
  - Pluggable Catalog: flows reference component types by name, resolved
    through a registry.

# Usage

	engine, err := weft.New()
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(ctx)

	def, err := flow.Load("flows/basic_prompting.yaml")
	if err != nil {
		log.Fatal(err)
	}
	res, err := engine.RunFlow(ctx, def)

Flows can also be written in Go with package dsl, or assembled directly from
component instances with package graph.
*/
package weft
