package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ledger codes that differ from ISO 4217
var isoCodes = map[string]string{
	"RMB": "CNY",
}

// FormatMoney renders amount with the symbol and separators of currency.
// Codes the money package does not know are printed as "1234.56 XYZ".
func FormatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if iso, ok := isoCodes[code]; ok {
		code = iso
	}

	cur := money.GetCurrency(code)
	if cur == nil {
		return strings.TrimSpace(amount.StringFixed(2) + " " + currency)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatUSD renders a USD amount.
func FormatUSD(amount decimal.Decimal) string {
	return FormatMoney(amount, money.USD)
}
