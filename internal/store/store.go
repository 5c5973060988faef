// Package store persists the ledger table. Every driver reads and writes the
// whole table at once and guards writes with an optimistic version check.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fubangkh/cashbook/internal/model"
)

// ErrConflict is returned by Write when the stored table changed since the
// snapshot the caller based its write on.
var ErrConflict = errors.New("ledger table changed since it was read")

// IOError wraps a failed read or write against the backing store.
type IOError struct {
	Op   string // "open", "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Snapshot is the full table as read, plus an opaque version token.
type Snapshot struct {
	Rows    []model.Row
	Version string
}

// IDs returns the entry IDs of the snapshot in table order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		ids[i] = r.EntryID
	}
	return ids
}

// Store reads and replaces the whole ledger table.
type Store interface {
	// Read returns every non-blank row in persisted order.
	Read(ctx context.Context) (Snapshot, error)
	// Write replaces the stored table with rows if the stored version still
	// equals expected, and returns ErrConflict otherwise.
	Write(ctx context.Context, rows []model.Row, expected string) error
	// Close releases resources held by the store.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverCSV    = "csv"
	DriverXLSX   = "xlsx"
	DriverSQLite = "sqlite"
)

// Options selects and configures a store driver.
type Options struct {
	Driver string
	Path   string // relative paths are resolved against the repo root
	Sheet  string // xlsx only
}

// Open creates the store described by opts.
func Open(repoRoot string, opts Options) (Store, error) {
	path := opts.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}

	switch opts.Driver {
	case DriverCSV, "":
		return NewCSVStore(path), nil
	case DriverXLSX:
		return NewXLSXStore(path, opts.Sheet), nil
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
