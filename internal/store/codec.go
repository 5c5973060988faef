package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/fubangkh/cashbook/internal/model"
)

const (
	numFields      = 15
	colEntryID     = 0
	colSubmittedAt = 1
	colModifiedAt  = 2
	colSummary     = 3
	colProject     = 4
	colAccount     = 5
	colInvoice     = 6
	colCategory    = 7
	colRawAmount   = 8
	colCurrency    = 9
	colIncome      = 10
	colExpense     = 11
	colBalance     = 12
	colHandler     = 13
	colNote        = 14
)

// MarshalRow converts a Row to its persisted cells, in model.Columns order.
func MarshalRow(r model.Row) []string {
	row := make([]string, numFields)
	row[colEntryID] = r.EntryID
	row[colSubmittedAt] = model.FormatTime(r.SubmittedAt)
	row[colModifiedAt] = model.FormatTime(r.ModifiedAt)
	row[colSummary] = r.Summary
	row[colProject] = r.ProjectRef
	row[colAccount] = r.Account
	row[colInvoice] = r.InvoiceNo
	row[colCategory] = string(r.Category)
	row[colRawAmount] = model.FormatAmount(r.RawAmount)
	row[colCurrency] = r.Currency
	row[colIncome] = model.FormatAmount(r.IncomeUSD)
	row[colExpense] = model.FormatAmount(r.ExpenseUSD)
	row[colBalance] = model.FormatAmount(r.BalanceUSD)
	row[colHandler] = r.Handler
	row[colNote] = r.Note
	return row
}

// UnmarshalRow converts persisted cells to a Row. Missing cells read as
// empty and numeric cells are coerced leniently, so it never fails.
func UnmarshalRow(record []string) model.Row {
	cell := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	return model.Row{
		EntryID:     cell(colEntryID),
		SubmittedAt: model.ParseTime(cell(colSubmittedAt)),
		ModifiedAt:  model.ParseTime(cell(colModifiedAt)),
		Summary:     cell(colSummary),
		ProjectRef:  cell(colProject),
		Account:     cell(colAccount),
		InvoiceNo:   cell(colInvoice),
		Category:    model.Category(cell(colCategory)),
		RawAmount:   model.ParseAmount(cell(colRawAmount)),
		Currency:    cell(colCurrency),
		IncomeUSD:   model.ParseAmount(cell(colIncome)),
		ExpenseUSD:  model.ParseAmount(cell(colExpense)),
		BalanceUSD:  model.ParseAmount(cell(colBalance)),
		Handler:     cell(colHandler),
		Note:        cell(colNote),
	}
}

// decodeRecords turns raw records (header first) into rows, dropping blank
// records.
func decodeRecords(records [][]string) []model.Row {
	if len(records) <= 1 {
		return nil
	}
	var rows []model.Row
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		rows = append(rows, UnmarshalRow(rec))
	}
	return rows
}

// encodeRecords is the inverse of decodeRecords.
func encodeRecords(rows []model.Row) [][]string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, append([]string(nil), model.Columns...))
	for _, r := range rows {
		records = append(records, MarshalRow(r))
	}
	return records
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// contentVersion derives a version token from raw file bytes. A missing
// file has the empty version.
func contentVersion(data []byte) string {
	if data == nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
