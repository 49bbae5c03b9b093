// Package variable stores named values (API keys, endpoints) that
// components read at run time through the variable service.
package variable

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
)

// Service is the contract every variable store satisfies.
// Get returns domain.ErrVariableNotFound for unknown names.
type Service interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", domain.ErrVariableNotFound, name)
}

// MemoryService keeps variables in process memory.
type MemoryService struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryService {
	return &MemoryService{vars: make(map[string]string)}
}

func (s *MemoryService) Get(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	if !ok {
		return "", notFound(name)
	}
	return v, nil
}

func (s *MemoryService) Set(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
	return nil
}

func (s *MemoryService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, name)
	return nil
}

func (s *MemoryService) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// LoadFromEnv copies the named environment variables into svc. Names that
// lookup does not find are skipped and returned.
func LoadFromEnv(ctx context.Context, svc Service, names []string, lookup func(string) (string, bool)) ([]string, error) {
	var skipped []string
	for _, name := range names {
		v, ok := lookup(name)
		if !ok {
			skipped = append(skipped, name)
			continue
		}
		if err := svc.Set(ctx, name, v); err != nil {
			return skipped, fmt.Errorf("load %s from environment: %w", name, err)
		}
	}
	return skipped, nil
}
