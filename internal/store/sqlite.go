package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/fubangkh/cashbook/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ledger_rows (
	position INTEGER PRIMARY KEY,
	entry_id TEXT NOT NULL DEFAULT '',
	submitted_at TEXT NOT NULL DEFAULT '',
	modified_at TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL DEFAULT '',
	project_ref TEXT NOT NULL DEFAULT '',
	account TEXT NOT NULL DEFAULT '',
	invoice_no TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	raw_amount TEXT NOT NULL DEFAULT '',
	currency TEXT NOT NULL DEFAULT '',
	income_usd TEXT NOT NULL DEFAULT '',
	expense_usd TEXT NOT NULL DEFAULT '',
	running_balance_usd TEXT NOT NULL DEFAULT '',
	handler TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ledger_meta (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL
);

INSERT OR IGNORE INTO ledger_meta (id, version) VALUES (1, 0);
`

// SQLiteStore keeps the ledger in a SQLite database. The table is still
// replaced as a whole, inside one transaction that also bumps the version.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &IOError{Op: "open", Path: path, Err: fmt.Errorf("creating schema: %w", err)}
	}
	return &SQLiteStore{path: path, db: db}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Read implements Store.
func (s *SQLiteStore) Read(ctx context.Context) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // nothing to commit

	var version int64
	if err := tx.QueryRowContext(ctx, `SELECT version FROM ledger_meta WHERE id = 1`).Scan(&version); err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: fmt.Errorf("reading version: %w", err)}
	}

	query := "SELECT " + strings.Join(model.Columns, ", ") + " FROM ledger_rows ORDER BY position"
	res, err := tx.QueryContext(ctx, query)
	if err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	defer res.Close()

	var rows []model.Row
	for res.Next() {
		rec := make([]string, numFields)
		dest := make([]any, numFields)
		for i := range rec {
			dest[i] = &rec[i]
		}
		if err := res.Scan(dest...); err != nil {
			return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
		}
		if isBlank(rec) {
			continue
		}
		rows = append(rows, UnmarshalRow(rec))
	}
	if err := res.Err(); err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	return Snapshot{Rows: rows, Version: strconv.FormatInt(version, 10)}, nil
}

// Write implements Store.
func (s *SQLiteStore) Write(ctx context.Context, rows []model.Row, expected string) error {
	want := int64(0)
	if expected != "" {
		v, err := strconv.ParseInt(expected, 10, 64)
		if err != nil {
			return ErrConflict
		}
		want = v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `UPDATE ledger_meta SET version = version + 1 WHERE id = 1 AND version = ?`, want)
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if n != 1 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_rows`); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", numFields+1), ", ")
	insert := "INSERT INTO ledger_rows (position, " + strings.Join(model.Columns, ", ") + ") VALUES (" + placeholders + ")"
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	defer stmt.Close()

	for i, r := range rows {
		args := make([]any, 0, numFields+1)
		args = append(args, i+1)
		for _, c := range MarshalRow(r) {
			args = append(args, c)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return &IOError{Op: "write", Path: s.path, Err: fmt.Errorf("inserting row %d: %w", i+1, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
