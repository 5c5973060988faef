package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fubangkh/cashbook/internal/model"
)

// pathLocks serializes writers to the same file within one process.
var pathLocks sync.Map

func lockPath(path string) func() {
	v, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ReadRows reads a ledger CSV (header first) from r.
func ReadRows(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	return decodeRecords(records), nil
}

// WriteRows writes rows to w as a ledger CSV, header included.
func WriteRows(w io.Writer, rows []model.Row) error {
	cw := csv.NewWriter(w)
	for i, rec := range encodeRecords(rows) {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVStore keeps the ledger in a single CSV file.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by the CSV file at path. The file is
// created on the first write.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the backing file.
func (s *CSVStore) Path() string { return s.path }

// Read implements Store.
func (s *CSVStore) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	data, err := readFile(s.path)
	if err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	rows, err := ReadRows(bytes.NewReader(data))
	if err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	return Snapshot{Rows: rows, Version: contentVersion(data)}, nil
}

// Write implements Store.
func (s *CSVStore) Write(ctx context.Context, rows []model.Row, expected string) error {
	if err := ctx.Err(); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	unlock := lockPath(s.path)
	defer unlock()

	current, err := readFile(s.path)
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if contentVersion(current) != expected {
		return ErrConflict
	}

	var buf bytes.Buffer
	if err := WriteRows(&buf, rows); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if err := replaceFile(s.path, buf.Bytes()); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Close implements Store.
func (s *CSVStore) Close() error { return nil }

// readFile returns nil data for a missing file.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
