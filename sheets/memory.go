package sheets

import (
	"context"
	"fmt"
	"sync"
)

// MemStore is an in-memory Store used by tests and dry runs.
type MemStore struct {
	mu     sync.Mutex
	tables map[string]*MemTable
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string]*MemTable)}
}

// Get returns an existing table or ErrTableNotFound.
func (s *MemStore) Get(ctx context.Context, name string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return table, nil
}

// GetOrCreate returns the named table, creating an empty one if needed.
func (s *MemStore) GetOrCreate(ctx context.Context, name string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table, ok := s.tables[name]; ok {
		return table, nil
	}
	table := &MemTable{name: name}
	s.tables[name] = table
	return table, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}

// Seed creates a table pre-filled with rows, header included.
func (s *MemStore) Seed(name string, rows [][]string) *MemTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	table := &MemTable{name: name, rows: rows}
	s.tables[name] = table
	return table
}

// MemTable is an in-memory Table.
type MemTable struct {
	name string
	mu   sync.Mutex
	rows [][]string
}

func (t *MemTable) Name() string {
	return t.name
}

func (t *MemTable) HeaderRow(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rows) == 0 {
		return nil, nil
	}
	return append([]string(nil), t.rows[0]...), nil
}

func (t *MemTable) InsertHeader(ctx context.Context, header []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rows) > 0 {
		return fmt.Errorf("table %s already has rows", t.name)
	}
	t.rows = append(t.rows, append([]string(nil), header...))
	return nil
}

func (t *MemTable) Append(ctx context.Context, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, row := range rows {
		t.rows = append(t.rows, append([]string(nil), row...))
	}
	return nil
}

func (t *MemTable) Rows(ctx context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}
