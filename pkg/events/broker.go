// Package events fans run and component events out to in-process
// subscribers, the way a socket layer would push build progress to clients.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/weft/pkg/domain"
)

// Event is the payload delivered to subscribers.
type Event struct {
	Type      domain.EventType `json:"type"`
	RunID     string           `json:"run_id"`
	Component string           `json:"component,omitempty"`
	Output    string           `json:"output,omitempty"`
	Value     any              `json:"value,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Store is the cache the broker keeps per-run history in.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Broker publishes events to subscribers and records the history of each run
// in the cache service, so late subscribers can catch up.
type Broker struct {
	store Store

	mu      sync.Mutex
	history sync.Mutex
	nextID  int
	subs    map[int]chan Event
	buffer  int
}

// New creates a broker recording history in store. buffer sizes each
// subscriber channel; events are dropped for subscribers that fall behind.
func New(store Store, buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{store: store, subs: make(map[int]chan Event), buffer: buffer}
}

func historyKey(runID string) string { return "events:" + runID }

// Subscribe returns a channel receiving every published event until ctx is done.
func (b *Broker) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// Publish records e and delivers it to every subscriber without blocking.
func (b *Broker) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	if e.RunID != "" && b.store != nil {
		b.history.Lock()
		prev, _ := b.store.Get(historyKey(e.RunID))
		events, _ := prev.([]Event)
		next := make([]Event, len(events), len(events)+1)
		copy(next, events)
		b.store.Set(historyKey(e.RunID), append(next, e))
		b.history.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// History returns the events published for a run.
func (b *Broker) History(runID string) []Event {
	if b.store == nil {
		return nil
	}
	v, _ := b.store.Get(historyKey(runID))
	events, _ := v.([]Event)
	return events
}

// Hooks returns lifecycle hooks that publish engine events through the broker.
func (b *Broker) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			b.Publish(Event{Type: e.Type, RunID: e.RunID, Timestamp: e.Timestamp})
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			b.Publish(Event{Type: e.Type, RunID: e.RunID, Error: errString(e.Err), Timestamp: e.Timestamp})
		},
		OnComponentEnd: func(ctx context.Context, e *domain.ComponentEvent) {
			b.Publish(Event{
				Type:      e.Type,
				RunID:     e.RunID,
				Component: e.Component,
				Output:    e.Output,
				Value:     e.Value,
				Error:     errString(e.Err),
				Timestamp: e.Timestamp,
			})
		},
		OnLog: func(ctx context.Context, e *domain.LogEvent) {
			b.Publish(Event{
				Type:      e.Type,
				RunID:     e.RunID,
				Component: e.Component,
				Value:     e.Log,
				Timestamp: e.Timestamp,
			})
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
