package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fubangkh/cashbook/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func sampleRows() []model.Row {
	return []model.Row{
		{Account: "BankX", ProjectRef: "ProjA", Category: model.CategoryEngineeringIncome, RawAmount: dec("500"), Currency: "USD", IncomeUSD: dec("500"), SubmittedAt: date(2025, 1, 5)},
		{Account: "Cash", Category: model.CategoryAdministrative, RawAmount: dec("691"), Currency: "RMB", ExpenseUSD: dec("100"), SubmittedAt: date(2025, 1, 10)},
		{Account: "BankX", ProjectRef: "ProjA", Category: model.CategoryEngineeringCost, RawAmount: dec("80"), Currency: "USD", ExpenseUSD: dec("80"), SubmittedAt: date(2025, 1, 20)},
		{Account: "BankX", Category: model.CategoryTransfer, RawAmount: dec("50"), Currency: "USD", ExpenseUSD: dec("50"), SubmittedAt: date(2025, 1, 31)},
		{Account: "Cash", Category: model.CategoryTransfer, RawAmount: dec("50"), Currency: "USD", IncomeUSD: dec("50"), SubmittedAt: date(2025, 1, 31)},
		{Account: "Cash", ProjectRef: "ProjB", Category: model.CategoryTravel, RawAmount: dec("100"), Currency: "USD", ExpenseUSD: dec("100"), SubmittedAt: date(2025, 2, 1)},
		{Account: "BankX", Category: model.CategoryOtherIncome, IncomeUSD: dec("7"), SubmittedAt: date(2025, 2, 3)},
	}
}

func TestAccountBalances(t *testing.T) {
	got := AccountBalances(sampleRows())
	require.Len(t, got, 2)

	assert.Equal(t, "BankX", got[0].Account)
	assert.Equal(t, "377.00", got[0].USD.StringFixed(2))
	assert.Equal(t, "377.00", got[0].Original.StringFixed(2), "legacy row without raw amount falls back to income")
	assert.Equal(t, "", got[0].Currency, "currency of the last row")

	assert.Equal(t, "Cash", got[1].Account)
	assert.Equal(t, "-150.00", got[1].USD.StringFixed(2))
	assert.Equal(t, "-741.00", got[1].Original.StringFixed(2))
	assert.Equal(t, "USD", got[1].Currency)
}

func TestAccountBalances_Empty(t *testing.T) {
	assert.Empty(t, AccountBalances(nil))
}

func TestExpenseRanking(t *testing.T) {
	got := ExpenseRanking(sampleRows(), Period{})
	require.Len(t, got, 4)

	// Two categories tie at 100: ordered by name.
	assert.Equal(t, "100.00", got[0].USD.StringFixed(2))
	assert.Equal(t, "100.00", got[1].USD.StringFixed(2))
	assert.True(t, got[0].Category < got[1].Category)
	assert.Equal(t, model.CategoryEngineeringCost, got[2].Category)
	assert.Equal(t, model.CategoryTransfer, got[3].Category)
	assert.Equal(t, "50.00", got[3].USD.StringFixed(2))
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].USD.GreaterThanOrEqual(got[i].USD))
	}
}

func TestExpenseRanking_Period(t *testing.T) {
	got := ExpenseRanking(sampleRows(), MonthPeriod(2025, time.February))
	require.Len(t, got, 1)
	assert.Equal(t, model.CategoryTravel, got[0].Category)

	got = ExpenseRanking(sampleRows(), MonthPeriod(2024, time.December))
	assert.Empty(t, got)
}

func TestProjectBalances(t *testing.T) {
	got := ProjectBalances(sampleRows())
	require.Len(t, got, 2)
	assert.Equal(t, "ProjA", got[0].Project)
	assert.Equal(t, "500.00", got[0].Income.StringFixed(2))
	assert.Equal(t, "80.00", got[0].Expense.StringFixed(2))
	assert.Equal(t, "420.00", got[0].Net.StringFixed(2))
	assert.Equal(t, "ProjB", got[1].Project)
	assert.Equal(t, "-100.00", got[1].Net.StringFixed(2))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRows(), MonthPeriod(2025, time.January))
	assert.Equal(t, 5, s.Rows)
	assert.Equal(t, "550.00", s.Income.StringFixed(2))
	assert.Equal(t, "230.00", s.Expense.StringFixed(2))
	assert.Equal(t, "320.00", s.Net.StringFixed(2))

	all := Summarize(sampleRows(), Period{})
	assert.Equal(t, 7, all.Rows)
	assert.Equal(t, "227.00", all.Net.StringFixed(2))
}

func TestPeriod(t *testing.T) {
	jan := MonthPeriod(2025, time.January)
	assert.True(t, jan.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)))
	assert.True(t, jan.Contains(time.Date(2025, 1, 31, 23, 59, 59, 0, time.Local)))
	assert.False(t, jan.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local)), "upper bound is exclusive")
	assert.False(t, jan.Contains(time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local)))

	december := MonthPeriod(2024, time.December)
	assert.True(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local).Equal(december.To))

	open := Period{From: date(2025, 1, 10)}
	assert.True(t, open.Contains(date(2030, 1, 1)))
	assert.False(t, open.Contains(date(2025, 1, 9)))
	assert.True(t, Period{}.Contains(time.Time{}))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatUSD(dec("1234.5")))
	assert.Equal(t, "-$5.00", FormatUSD(dec("-5")))
	assert.Equal(t, "$0.01", FormatUSD(dec("0.005")))
	assert.Contains(t, FormatMoney(dec("691"), "RMB"), "691.00")
	assert.Contains(t, FormatMoney(dec("691"), "rmb"), "691.00")
	assert.Equal(t, "1.50 ZZZZ", FormatMoney(dec("1.5"), "ZZZZ"))
	assert.Equal(t, "1.50", FormatMoney(dec("1.5"), ""))
}
