// Package ledger turns entry intents into a consistent ledger table and runs
// the read-modify-write cycle against a table store.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fubangkh/cashbook/internal/fx"
	"github.com/fubangkh/cashbook/internal/id"
	"github.com/fubangkh/cashbook/internal/model"
)

// SystemHandler is the handler recorded on both rows of a transfer.
const SystemHandler = "系统自动"

const (
	transferOutTag = "【转出】"
	transferInTag  = "【转入】"
)

var (
	// ErrSequenceExhausted is returned when a day already holds the maximum
	// number of entry IDs.
	ErrSequenceExhausted = errors.New("entry ID sequence exhausted for the day")
	// ErrNotFound is returned when a correction targets an unknown entry.
	ErrNotFound = errors.New("entry not found")
)

// Result is a new table snapshot plus the IDs of the rows the operation
// created or changed.
type Result struct {
	Rows []model.Row
	IDs  []string
}

// AppendEntry validates intent, appends its row (or transfer pair) to a copy
// of table and recomputes every running balance. table is not modified.
func AppendEntry(table []model.Row, intent Intent, now time.Time) (Result, error) {
	in := intent.normalized()
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	usd, err := fx.Convert(in.Amount, in.Rate)
	if err != nil {
		return Result{}, err
	}

	slots := 1
	if in.IsTransfer() {
		slots = 2
	}
	ids, err := allocateIDs(table, now, slots)
	if err != nil {
		return Result{}, err
	}

	base := model.Row{
		SubmittedAt: now,
		ModifiedAt:  now,
		Summary:     in.Summary,
		ProjectRef:  in.ProjectRef,
		InvoiceNo:   in.InvoiceNo,
		Category:    in.Category,
		RawAmount:   in.Amount.Round(2),
		Currency:    in.Currency,
		Handler:     in.Handler,
		Note:        in.Note,
	}

	var added []model.Row
	if in.IsTransfer() {
		base.ProjectRef = ""
		out := base
		out.EntryID = ids[0]
		out.Account = in.SourceAccount
		out.Summary = transferOutTag + in.Summary
		out.Handler = SystemHandler
		out.ExpenseUSD = usd

		into := base
		into.EntryID = ids[1]
		into.Account = in.DestAccount
		into.Summary = transferInTag + in.Summary
		into.Handler = SystemHandler
		into.IncomeUSD = usd

		added = []model.Row{out, into}
	} else {
		row := base
		row.EntryID = ids[0]
		row.Account = in.Account
		applyAmount(&row, usd)
		added = []model.Row{row}
	}

	rows := make([]model.Row, 0, len(table)+len(added))
	rows = append(rows, table...)
	rows = append(rows, added...)
	return Result{Rows: Recompute(rows), IDs: ids}, nil
}

// CorrectEntry replaces the editable fields of the normal entry entryID with
// intent and recomputes every running balance. The entry keeps its ID and
// submission time; its modification time becomes now.
func CorrectEntry(table []model.Row, entryID string, intent Intent, now time.Time) (Result, error) {
	idx := -1
	for i, r := range table {
		if r.EntryID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, entryID)
	}

	in := intent.normalized()
	if table[idx].Category.IsTransfer() {
		return Result{}, &ValidationError{Field: "category", Reason: "transfer rows cannot be corrected individually"}
	}
	if in.IsTransfer() {
		return Result{}, &ValidationError{Field: "category", Reason: "an entry cannot be turned into a transfer"}
	}
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	usd, err := fx.Convert(in.Amount, in.Rate)
	if err != nil {
		return Result{}, err
	}

	rows := make([]model.Row, len(table))
	copy(rows, table)

	row := rows[idx]
	row.ModifiedAt = now
	row.Summary = in.Summary
	row.ProjectRef = in.ProjectRef
	row.Account = in.Account
	row.InvoiceNo = in.InvoiceNo
	row.Category = in.Category
	row.RawAmount = in.Amount.Round(2)
	row.Currency = in.Currency
	row.Handler = in.Handler
	row.Note = in.Note
	applyAmount(&row, usd)
	rows[idx] = row

	return Result{Rows: Recompute(rows), IDs: []string{entryID}}, nil
}

// Recompute returns a copy of rows with income and expense rounded to cents
// and every running balance recalculated in table order.
func Recompute(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	balance := decimal.Zero
	for i, r := range rows {
		r.IncomeUSD = r.IncomeUSD.Round(2)
		r.ExpenseUSD = r.ExpenseUSD.Round(2)
		balance = balance.Add(r.IncomeUSD).Sub(r.ExpenseUSD)
		r.BalanceUSD = balance
		out[i] = r
	}
	return out
}

func applyAmount(row *model.Row, usd decimal.Decimal) {
	row.IncomeUSD = decimal.Zero
	row.ExpenseUSD = decimal.Zero
	switch {
	case row.Category.IsIncome():
		row.IncomeUSD = usd
	case row.Category.IsExpense():
		row.ExpenseUSD = usd
	}
}

func allocateIDs(table []model.Row, now time.Time, n int) ([]string, error) {
	existing := make([]string, len(table))
	for i, r := range table {
		existing[i] = r.EntryID
	}

	next := id.LastSeq(existing, now) + 1
	if next+n-1 > id.MaxSeq {
		return nil, fmt.Errorf("%w: %s", ErrSequenceExhausted, id.DayPrefix(now))
	}

	ids := make([]string, n)
	for i := range ids {
		ids[i] = id.FormatEntryID(now, next+i)
	}
	return ids, nil
}
