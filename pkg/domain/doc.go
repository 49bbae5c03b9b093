/*
Package domain contains the shared vocabulary of the weft flow engine.

It defines the payloads exchanged along edges, the status and log records
emitted while a flow runs, the lifecycle hooks observers attach to, and the
error taxonomy every other package reports through. This package is kept
free of I/O and of any dependency on the graph or engine packages.

# Key Entities

  - Message, Data: the common payloads carried between components.
  - Log: a named record emitted by a component for tracing sinks.
  - StatusEntry, RunResult: what a completed run reports.
  - LifecycleHooks: side-channel callbacks fired by the engine.
  - ComponentDefinitionError, MissingInputError, GraphCycleError,
    ComponentExecutionError: the failures a flow can surface.
*/
package domain
