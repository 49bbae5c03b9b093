package runtime

import "sync"

// memo caches output values for one run, keyed by "instance.output".
// Each key has its own lock so unrelated outputs never wait on each other,
// and a second request for a key in flight waits for the first.
// Failures are not stored; the next request computes again.
type memo struct {
	mu    sync.Mutex
	cells map[string]*memoCell
}

type memoCell struct {
	mu    sync.Mutex
	done  bool
	value any
}

func newMemo() *memo {
	return &memo{cells: make(map[string]*memoCell)}
}

func (m *memo) cell(key string) *memoCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[key]
	if !ok {
		c = &memoCell{}
		m.cells[key] = c
	}
	return c
}

// compute returns the cached value for key or runs fn to produce it.
// cached reports whether fn was skipped.
func (m *memo) compute(key string, fn func() (any, error)) (value any, cached bool, err error) {
	c := m.cell(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return c.value, true, nil
	}
	v, err := fn()
	if err != nil {
		return nil, false, err
	}
	c.value, c.done = v, true
	return v, false, nil
}

func (m *memo) get(key string) (any, bool) {
	m.mu.Lock()
	c, ok := m.cells[key]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.done
}
