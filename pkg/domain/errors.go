package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrComponentDefinition marks an invalid declared component contract.
	ErrComponentDefinition = errors.New("invalid component definition")

	// ErrMissingInput is returned when a required input has no literal, default or wiring.
	ErrMissingInput = errors.New("missing required input")

	// ErrGraphCycle is returned when the build order cannot be completed.
	ErrGraphCycle = errors.New("graph contains a cycle")

	// ErrComponentExecution wraps a failure raised by an output method.
	ErrComponentExecution = errors.New("component execution failed")

	// ErrIncompatibleEdge is returned when a producer output type is not accepted by the consumer input.
	ErrIncompatibleEdge = errors.New("incompatible edge")

	// ErrUnknownInput is returned when binding a value to an input that is not declared.
	ErrUnknownInput = errors.New("unknown input")

	// ErrUnknownOutput is returned when referencing an output that is not declared.
	ErrUnknownOutput = errors.New("unknown output")

	// ErrUnknownInstance is returned when an edge points at an instance outside the graph.
	ErrUnknownInstance = errors.New("unknown component instance")

	// ErrDuplicateInstance is returned when two instances share an id within one graph.
	ErrDuplicateInstance = errors.New("duplicate component instance")

	// ErrComponentPanic is wrapped by ComponentExecutionError when an output method panics.
	ErrComponentPanic = errors.New("component panicked")

	// ErrRunCanceled is returned when a run is aborted at a step boundary.
	ErrRunCanceled = errors.New("run canceled")

	// ErrInstanceBusy is returned when a run starts on instances another run
	// still holds. Runs of one graph must not overlap.
	ErrInstanceBusy = errors.New("component instance in use by another run")

	// ErrUnknownComponentType is returned by the catalog for unregistered type names.
	ErrUnknownComponentType = errors.New("unknown component type")

	// ErrServiceNotFound is returned when resolving a service name nobody registered.
	ErrServiceNotFound = errors.New("service not found")

	// ErrServiceCycle is returned when service dependencies loop back on themselves.
	ErrServiceCycle = errors.New("service dependency cycle")

	// ErrVariableNotFound is returned by variable stores for unknown names.
	ErrVariableNotFound = errors.New("variable not found")

	// ErrSerializationFallback marks a log message that could not be natively serialized.
	ErrSerializationFallback = errors.New("serialization fallback")
)

// ComponentDefinitionError reports an invalid declared contract.
// It is raised when the instance is constructed and is always fatal for that instance.
type ComponentDefinitionError struct {
	Component string // Instance id or component name
	Field     string // Offending input/output/method name, if any
	Reason    string
}

func (e *ComponentDefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("component %q: %s", e.Component, e.Reason)
	}
	return fmt.Sprintf("component %q: %s %q", e.Component, e.Reason, e.Field)
}

func (e *ComponentDefinitionError) Unwrap() error { return ErrComponentDefinition }

// MissingInputError names the exact component input left unresolved.
type MissingInputError struct {
	Component string
	Input     string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("component %q: required input %q is not set and not connected", e.Component, e.Input)
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// GraphCycleError lists the instances that could not be ordered.
type GraphCycleError struct {
	Instances []string
}

func (e *GraphCycleError) Error() string {
	return fmt.Sprintf("graph contains a cycle between: %s", strings.Join(e.Instances, ", "))
}

func (e *GraphCycleError) Unwrap() error { return ErrGraphCycle }

// EdgeTypeError reports a producer output whose types are not accepted by the consumer input.
type EdgeTypeError struct {
	Source       string
	SourceOutput string
	Target       string
	TargetInput  string
	Produced     []string
	Accepted     []string
}

func (e *EdgeTypeError) Error() string {
	return fmt.Sprintf("edge %s.%s -> %s.%s: output types [%s] not accepted by input types [%s]",
		e.Source, e.SourceOutput, e.Target, e.TargetInput,
		strings.Join(e.Produced, ", "), strings.Join(e.Accepted, ", "))
}

func (e *EdgeTypeError) Unwrap() error { return ErrIncompatibleEdge }

// ComponentExecutionError attributes a failed run to one instance output.
type ComponentExecutionError struct {
	Component string
	Output    string
	Err       error
}

func (e *ComponentExecutionError) Error() string {
	return fmt.Sprintf("component %q output %q failed: %v", e.Component, e.Output, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *ComponentExecutionError) Unwrap() []error {
	return []error{ErrComponentExecution, e.Err}
}

// SerializationFallbackWarning is non-fatal: the message was stored as its string form.
type SerializationFallbackWarning struct {
	Name string
	Err  error
}

func (e *SerializationFallbackWarning) Error() string {
	return fmt.Sprintf("log %q: message not serializable, using string form: %v", e.Name, e.Err)
}

func (e *SerializationFallbackWarning) Unwrap() []error {
	return []error{ErrSerializationFallback, e.Err}
}
