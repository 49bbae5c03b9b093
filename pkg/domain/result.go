package domain

import (
	"sort"
	"time"
)

// StatusKind is the outcome of one output invocation.
type StatusKind string

const (
	StatusOK    StatusKind = "ok"
	StatusError StatusKind = "error"
)

// StatusEntry records one output invocation for diagnostics and tracing.
type StatusEntry struct {
	Component string        `json:"component"`
	Output    string        `json:"output"`
	Status    StatusKind    `json:"status"`
	Value     any           `json:"value,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// OutputKey addresses an output of an instance ("instance.output").
func OutputKey(component, output string) string {
	return component + "." + output
}

// RunResult is returned by a completed run.
type RunResult struct {
	RunID    string         `json:"run_id"`
	Order    []string       `json:"order"`
	Outputs  map[string]any `json:"outputs"`
	Statuses []StatusEntry  `json:"statuses"`
	Logs     []LogEvent     `json:"logs,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Output returns a terminal output by instance and output name.
func (r *RunResult) Output(component, output string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.Outputs[OutputKey(component, output)]
	return v, ok
}

// OutputKeys returns the terminal output keys in sorted order.
func (r *RunResult) OutputKeys() []string {
	keys := make([]string, 0, len(r.Outputs))
	for k := range r.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
