package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fubangkh/cashbook/internal/model"
)

// DefaultSheet is the worksheet used when none is configured.
const DefaultSheet = "ledger"

// XLSXStore keeps the ledger on one worksheet of an Excel workbook.
type XLSXStore struct {
	path  string
	sheet string
}

// NewXLSXStore creates a store backed by sheet of the workbook at path.
func NewXLSXStore(path, sheet string) *XLSXStore {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &XLSXStore{path: path, sheet: sheet}
}

// Path returns the backing workbook.
func (s *XLSXStore) Path() string { return s.path }

// Read implements Store.
func (s *XLSXStore) Read(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	data, err := readFile(s.path)
	if err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	if data == nil {
		return Snapshot{}, nil
	}

	records, err := ReadSheet(data, s.sheet)
	if err != nil {
		return Snapshot{}, &IOError{Op: "read", Path: s.path, Err: err}
	}
	return Snapshot{Rows: decodeRecords(records), Version: contentVersion(data)}, nil
}

// Write implements Store.
func (s *XLSXStore) Write(ctx context.Context, rows []model.Row, expected string) error {
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

	data, err := WriteSheet(rows, s.sheet)
	if err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	if err := replaceFile(s.path, data); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Close implements Store.
func (s *XLSXStore) Close() error { return nil }

// ReadSheet returns the raw records of sheet in the workbook data. A missing
// sheet reads as empty.
func ReadSheet(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	records, err := f.GetRows(sheet)
	if err != nil {
		var missing excelize.ErrSheetNotExist
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return records, nil
}

// WriteSheet renders rows as a single-sheet workbook and returns its bytes.
func WriteSheet(rows []model.Row, sheet string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	for i, rec := range encodeRecords(rows) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "C", 20); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}
	if err := f.SetColWidth(sheet, "D", "D", 36); err != nil {
		return nil, fmt.Errorf("sizing columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}
