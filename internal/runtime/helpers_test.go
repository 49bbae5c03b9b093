package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aretw0/weft/pkg/component"
	"github.com/aretw0/weft/pkg/domain"
)

// source emits a literal value and counts its invocations.
type source struct {
	component.Base
	calls atomic.Int32
}

func (s *source) Definition() component.Definition {
	return component.Definition{
		Name:    "Source",
		Inputs:  []component.Input{component.StrInput("value")},
		Outputs: []component.Output{component.NewOutput("text", "Emit", domain.TypeText)},
	}
}

func (s *source) Emit(ctx context.Context) (string, error) {
	s.calls.Add(1)
	s.Log("emitting " + s.Text("value"))
	return s.Text("value"), nil
}

// suffix appends a literal to its wired input.
type suffix struct {
	component.Base
	calls atomic.Int32
}

func (s *suffix) Definition() component.Definition {
	return component.Definition{
		Name: "Suffix",
		Inputs: []component.Input{
			component.MessageTextInput("in", component.Required()),
			component.StrInput("suffix", component.Default("")),
		},
		Outputs: []component.Output{
			component.NewOutput("text", "Build", domain.TypeText),
			component.NewOutput("length", "Length"),
		},
	}
}

func (s *suffix) Build(ctx context.Context) (string, error) {
	s.calls.Add(1)
	return s.Text("in") + s.Text("suffix"), nil
}

func (s *suffix) Length(ctx context.Context) (int, error) {
	return len(s.Text("in")), nil
}

// upper upper-cases its wired input.
type upper struct {
	component.Base
}

func (u *upper) Definition() component.Definition {
	return component.Definition{
		Name:    "Upper",
		Inputs:  []component.Input{component.MessageTextInput("in", component.Required())},
		Outputs: []component.Output{component.NewOutput("text", "Build", domain.TypeText)},
	}
}

func (u *upper) Build(ctx context.Context) (string, error) {
	return strings.ToUpper(u.Text("in")), nil
}

var errFlaky = errors.New("flaky failure")

// flaky fails while failing is set.
type flaky struct {
	component.Base
	failing atomic.Bool
	calls   atomic.Int32
	panics  bool
}

func (f *flaky) Definition() component.Definition {
	return component.Definition{
		Name:    "Flaky",
		Inputs:  []component.Input{component.MessageTextInput("in")},
		Outputs: []component.Output{component.NewOutput("text", "Build", domain.TypeText)},
	}
}

func (f *flaky) Build(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if f.failing.Load() {
		return "", errFlaky
	}
	return "recovered:" + f.Text("in"), nil
}

// sleeper blocks until its context is done, the delay elapses or gate closes.
type sleeper struct {
	component.Base
	delay time.Duration
	gate  <-chan struct{}
	onRun func()
}

func (s *sleeper) Definition() component.Definition {
	return component.Definition{
		Name:    "Sleeper",
		Inputs:  []component.Input{component.MessageTextInput("in")},
		Outputs: []component.Output{component.NewOutput("text", "Build", domain.TypeText)},
	}
}

func (s *sleeper) Build(ctx context.Context) (string, error) {
	if s.onRun != nil {
		s.onRun()
	}
	select {
	case <-time.After(s.delay):
		return "slept", nil
	case <-s.gate:
		return "slept", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// labeler reports its own status and returns its input unchanged.
type labeler struct {
	component.Base
}

func (l *labeler) Definition() component.Definition {
	return component.Definition{
		Name:    "Labeler",
		Inputs:  []component.Input{component.MessageTextInput("in", component.Required())},
		Outputs: []component.Output{component.NewOutput("text", "Build", domain.TypeText)},
	}
}

func (l *labeler) Build(ctx context.Context) (string, error) {
	l.SetStatus(fmt.Sprintf("%d bytes", len(l.Text("in"))))
	return l.Text("in"), nil
}
