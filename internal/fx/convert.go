// Package fx converts foreign amounts to USD and supplies the exchange rates
// used for the conversion.
package fx

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InvalidRateError is returned when an exchange rate is zero or negative.
type InvalidRateError struct {
	Rate decimal.Decimal
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid exchange rate %s: must be greater than zero", e.Rate.String())
}

// Convert turns amount, expressed in a currency quoted at rate units per USD,
// into USD rounded to cents.
func Convert(amount, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, &InvalidRateError{Rate: rate}
	}
	return amount.Div(rate).Round(2), nil
}
