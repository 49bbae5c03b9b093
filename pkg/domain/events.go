package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart       EventType = "run_start"
	EventRunEnd         EventType = "run_end"
	EventComponentStart EventType = "component_start"
	EventComponentEnd   EventType = "component_end"
	EventLog            EventType = "log"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// RunEvent marks the beginning or end of a run.
type RunEvent struct {
	EventBase
	Flow     string        `json:"flow,omitempty"`
	Order    []string      `json:"order,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ComponentEvent represents one output method invocation.
type ComponentEvent struct {
	EventBase
	Component string        `json:"component"`
	Output    string        `json:"output"`
	Value     any           `json:"value,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// LogEvent carries a Log record emitted by a component.
type LogEvent struct {
	EventBase
	Component string `json:"component"`
	Log       Log    `json:"log"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks are a side channel: nothing downstream reads them for wiring.
type LifecycleHooks struct {
	OnRunStart       func(context.Context, *RunEvent)
	OnRunEnd         func(context.Context, *RunEvent)
	OnComponentStart func(context.Context, *ComponentEvent)
	OnComponentEnd   func(context.Context, *ComponentEvent)
	OnLog            func(context.Context, *LogEvent)
}

// ChainHooks returns hooks that call each of the given hooks in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnRunEnd: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunEnd != nil {
					h.OnRunEnd(ctx, e)
				}
			}
		},
		OnComponentStart: func(ctx context.Context, e *ComponentEvent) {
			for _, h := range hooks {
				if h.OnComponentStart != nil {
					h.OnComponentStart(ctx, e)
				}
			}
		},
		OnComponentEnd: func(ctx context.Context, e *ComponentEvent) {
			for _, h := range hooks {
				if h.OnComponentEnd != nil {
					h.OnComponentEnd(ctx, e)
				}
			}
		},
		OnLog: func(ctx context.Context, e *LogEvent) {
			for _, h := range hooks {
				if h.OnLog != nil {
					h.OnLog(ctx, e)
				}
			}
		},
	}
}
