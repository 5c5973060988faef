package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimeFormat is the persisted layout of submitted_at and modified_at.
const TimeFormat = "2006-01-02 15:04:05"

// Columns is the persisted column order of the ledger table. Stores must
// write exactly these columns in exactly this order.
var Columns = []string{
	"entry_id",
	"submitted_at",
	"modified_at",
	"summary",
	"project_ref",
	"account",
	"invoice_no",
	"category",
	"raw_amount",
	"currency",
	"income_usd",
	"expense_usd",
	"running_balance_usd",
	"handler",
	"note",
}

// Row is one ledger entry. BalanceUSD is derived and only meaningful after
// the table has been recomputed.
type Row struct {
	EntryID     string
	SubmittedAt time.Time
	ModifiedAt  time.Time
	Summary     string
	ProjectRef  string
	Account     string
	InvoiceNo   string
	Category    Category
	RawAmount   decimal.Decimal
	Currency    string
	IncomeUSD   decimal.Decimal
	ExpenseUSD  decimal.Decimal
	BalanceUSD  decimal.Decimal
	Handler     string
	Note        string
}

// IsExpense reports whether the row books money out of its account.
func (r Row) IsExpense() bool {
	return r.ExpenseUSD.IsPositive()
}

// Net returns income minus expense for the row.
func (r Row) Net() decimal.Decimal {
	return r.IncomeUSD.Sub(r.ExpenseUSD)
}

var placeholders = map[string]bool{
	"":            true,
	"-":           true,
	"--":          true,
	"-- 请选择 --": true,
}

// Normalize trims s and maps the "nothing selected" tokens of form input to
// the empty string.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if placeholders[s] {
		return ""
	}
	return s
}

// ParseAmount converts a stored amount cell to a decimal. Thousands
// separators, currency-style whitespace and a leading '+' are tolerated;
// anything else that does not parse becomes zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '_':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseTime parses a stored timestamp. Unparsable or empty cells yield the
// zero time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{TimeFormat, time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FormatTime renders a timestamp for storage; the zero time is empty.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeFormat)
}
