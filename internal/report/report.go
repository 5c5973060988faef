// Package report aggregates ledger rows into balances and rankings.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fubangkh/cashbook/internal/model"
)

// Period is a half-open [From, To) window on submitted_at. A zero bound is
// open on that side.
type Period struct {
	From time.Time
	To   time.Time
}

// MonthPeriod returns the calendar month in local time.
func MonthPeriod(year int, month time.Month) Period {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	return Period{From: from, To: from.AddDate(0, 1, 0)}
}

// Contains reports whether t falls in the period.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

// AccountBalance is the net position of one settlement account.
type AccountBalance struct {
	Account  string
	USD      decimal.Decimal
	Original decimal.Decimal // signed sum in the account's own currency
	Currency string          // currency of the account's latest row
}

// AccountBalances groups rows by account in first-appearance order.
func AccountBalances(rows []model.Row) []AccountBalance {
	index := make(map[string]int)
	var out []AccountBalance
	for _, r := range rows {
		i, ok := index[r.Account]
		if !ok {
			i = len(out)
			index[r.Account] = i
			out = append(out, AccountBalance{Account: r.Account})
		}
		b := &out[i]
		b.USD = b.USD.Add(r.Net())
		b.Original = b.Original.Add(originalAmount(r))
		b.Currency = r.Currency
	}
	return out
}

// originalAmount is the row's amount in its own currency, negative for money
// going out. Legacy rows without a raw amount fall back to the USD columns.
func originalAmount(r model.Row) decimal.Decimal {
	amt := r.RawAmount
	switch {
	case !amt.IsZero():
	case !r.IncomeUSD.IsZero():
		amt = r.IncomeUSD
	default:
		amt = r.ExpenseUSD
	}
	if r.IsExpense() {
		return amt.Abs().Neg()
	}
	return amt
}

// CategoryTotal is the USD expense booked against one category.
type CategoryTotal struct {
	Category model.Category
	USD      decimal.Decimal
}

// ExpenseRanking totals expense per category for rows in period, largest
// first. Ties are ordered by category name.
func ExpenseRanking(rows []model.Row, period Period) []CategoryTotal {
	totals := make(map[model.Category]decimal.Decimal)
	for _, r := range rows {
		if !r.IsExpense() || !period.Contains(r.SubmittedAt) {
			continue
		}
		totals[r.Category] = totals[r.Category].Add(r.ExpenseUSD)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for c, usd := range totals {
		out = append(out, CategoryTotal{Category: c, USD: usd})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].USD.Cmp(out[j].USD); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ProjectBalance is the income and expense booked against one project.
type ProjectBalance struct {
	Project string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// ProjectBalances groups rows with a project reference by project, in
// first-appearance order.
func ProjectBalances(rows []model.Row) []ProjectBalance {
	index := make(map[string]int)
	var out []ProjectBalance
	for _, r := range rows {
		if r.ProjectRef == "" {
			continue
		}
		i, ok := index[r.ProjectRef]
		if !ok {
			i = len(out)
			index[r.ProjectRef] = i
			out = append(out, ProjectBalance{Project: r.ProjectRef})
		}
		p := &out[i]
		p.Income = p.Income.Add(r.IncomeUSD)
		p.Expense = p.Expense.Add(r.ExpenseUSD)
		p.Net = p.Income.Sub(p.Expense)
	}
	return out
}

// Summary holds period totals. Transfer rows are counted but cancel out of
// Net.
type Summary struct {
	Period  Period
	Rows    int
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Summarize totals the rows that fall in period.
func Summarize(rows []model.Row, period Period) Summary {
	s := Summary{Period: period}
	for _, r := range rows {
		if !period.Contains(r.SubmittedAt) {
			continue
		}
		s.Rows++
		s.Income = s.Income.Add(r.IncomeUSD)
		s.Expense = s.Expense.Add(r.ExpenseUSD)
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}
