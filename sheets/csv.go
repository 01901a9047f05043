package sheets

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// CSVStore keeps each table as one CSV file under a directory. It lets the
// pipeline run without spreadsheet credentials and backs the file-based
// tests.
type CSVStore struct {
	dir    string
	mu     sync.Mutex
	tables map[string]*csvTable
}

// NewCSVStore opens (creating if needed) the store directory.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %q: %w", dir, err)
	}
	return &CSVStore{dir: dir, tables: make(map[string]*csvTable)}, nil
}

// Get opens an existing table file or fails with ErrTableNotFound.
func (s *CSVStore) Get(ctx context.Context, name string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table, ok := s.tables[name]; ok {
		return table, nil
	}
	path := s.path(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
		}
		return nil, fmt.Errorf("stat table %s: %w", name, err)
	}
	return s.openLocked(name, path)
}

// GetOrCreate opens the table file, creating an empty one if needed.
func (s *CSVStore) GetOrCreate(ctx context.Context, name string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if table, ok := s.tables[name]; ok {
		return table, nil
	}
	return s.openLocked(name, s.path(name))
}

func (s *CSVStore) openLocked(name, path string) (*csvTable, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	table := &csvTable{name: name, file: f}
	s.tables[name] = table
	return table, nil
}

func (s *CSVStore) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// Close closes every open table file.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, table := range s.tables {
		if err := table.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type csvTable struct {
	name string
	mu   sync.Mutex
	file *os.File
}

func (t *csvTable) Name() string {
	return t.name
}

func (t *csvTable) HeaderRow(ctx context.Context) ([]string, error) {
	rows, err := t.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (t *csvTable) InsertHeader(ctx context.Context, header []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := t.file.Stat()
	if err != nil {
		return fmt.Errorf("stat table %s: %w", t.name, err)
	}
	if info.Size() > 0 {
		return fmt.Errorf("table %s already has rows", t.name)
	}
	return t.writeLocked([][]string{header})
}

func (t *csvTable) Append(ctx context.Context, rows [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeLocked(rows)
}

func (t *csvTable) writeLocked(rows [][]string) error {
	if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek table %s: %w", t.name, err)
	}
	w := csv.NewWriter(t.file)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row to %s: %w", t.name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush table %s: %w", t.name, err)
	}
	return nil
}

func (t *csvTable) Rows(ctx context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek table %s: %w", t.name, err)
	}
	defer func() {
		_, _ = t.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(t.file)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", t.name, err)
	}
	return rows, nil
}

func (t *csvTable) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file.Close()
}
