// Package tracing collects the Log records components emit, grouped by run.
package tracing

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
)

// Entry is one collected record.
type Entry struct {
	Time      time.Time  `json:"time"`
	Component string     `json:"component"`
	Log       domain.Log `json:"log"`
}

// Service keeps the logs of the most recent runs. The oldest run is evicted
// once more than limit runs have been traced.
type Service struct {
	mu     sync.Mutex
	limit  int
	runs   map[string][]Entry
	order  []string
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger mirrors every record to logger at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a tracing service keeping up to limit runs (limit <= 0 keeps all).
func New(limit int, opts ...Option) *Service {
	s := &Service{
		limit:  limit,
		runs:   make(map[string][]Entry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddLog records l for the given run and component.
func (s *Service) AddLog(runID, component string, l domain.Log) {
	s.mu.Lock()
	if _, ok := s.runs[runID]; !ok {
		s.order = append(s.order, runID)
		if s.limit > 0 && len(s.order) > s.limit {
			evict := s.order[0]
			s.order = s.order[1:]
			delete(s.runs, evict)
		}
	}
	s.runs[runID] = append(s.runs[runID], Entry{Time: time.Now(), Component: component, Log: l})
	s.mu.Unlock()

	s.logger.Debug("component log", "run_id", runID, "component", component, "name", l.Name, "type", l.Type)
}

// Logs returns the records of one run in emission order.
func (s *Service) Logs(runID string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.runs[runID]))
	copy(out, s.runs[runID])
	return out
}

// Runs returns the traced run ids, oldest first.
func (s *Service) Runs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Clear drops every collected record.
func (s *Service) Clear() {
	s.mu.Lock()
	s.runs = make(map[string][]Entry)
	s.order = nil
	s.mu.Unlock()
}
