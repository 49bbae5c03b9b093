package variable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileService persists variables as a single JSON object on disk.
// Every write rewrites the file through a temporary file and a rename.
type FileService struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a store backed by path. The file is created on first write.
func NewFile(path string) *FileService {
	return &FileService{path: path}
}

func (s *FileService) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read variables: %w", err)
	}
	vars := map[string]string{}
	if len(data) == 0 {
		return vars, nil
	}
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse variables file %s: %w", s.path, err)
	}
	return vars, nil
}

func (s *FileService) write(vars map[string]string) error {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal variables: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create variables dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write variables: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileService) Get(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := vars[name]
	if !ok {
		return "", notFound(name)
	}
	return v, nil
}

func (s *FileService) Set(ctx context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return err
	}
	vars[name] = value
	return s.write(vars)
}

func (s *FileService) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := vars[name]; !ok {
		return nil
	}
	delete(vars, name)
	return s.write(vars)
}

func (s *FileService) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, err := s.read()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}
