package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fubangkh/cashbook/internal/model"
)

// ValidationError names the intent field that was missing or invalid.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Intent carries the user-supplied field values of a new or corrected entry.
// A transfer intent (Category == model.CategoryTransfer) uses SourceAccount
// and DestAccount instead of Account, and ignores Handler and ProjectRef.
type Intent struct {
	Summary    string
	Amount     decimal.Decimal
	Currency   string
	Rate       decimal.Decimal // units of Currency per USD
	InvoiceNo  string
	Category   model.Category
	ProjectRef string
	Account    string
	Handler    string
	Note       string

	SourceAccount string
	DestAccount   string
}

// IsTransfer reports whether the intent produces a transfer pair.
func (in Intent) IsTransfer() bool {
	return in.Category.IsTransfer()
}

// normalized returns a copy with form placeholders cleared and text trimmed.
func (in Intent) normalized() Intent {
	in.Summary = strings.TrimSpace(in.Summary)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.InvoiceNo = strings.TrimSpace(in.InvoiceNo)
	in.Category = model.Category(strings.TrimSpace(string(in.Category)))
	in.ProjectRef = model.Normalize(in.ProjectRef)
	in.Account = model.Normalize(in.Account)
	in.Handler = model.Normalize(in.Handler)
	in.Note = strings.TrimSpace(in.Note)
	in.SourceAccount = model.Normalize(in.SourceAccount)
	in.DestAccount = model.Normalize(in.DestAccount)
	return in
}

// Validate checks a normalized intent. The first violated rule wins.
func (in Intent) Validate() error {
	if in.Summary == "" {
		return &ValidationError{Field: "summary", Reason: "must not be empty"}
	}
	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if in.InvoiceNo == "" {
		return &ValidationError{Field: "invoice_no", Reason: "must not be empty"}
	}
	if !in.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", in.Category)}
	}
	if !isCurrencyCode(in.Currency) {
		return &ValidationError{Field: "currency", Reason: fmt.Sprintf("%q is not a 3 or 4 letter code", in.Currency)}
	}
	if in.Category.IsCoreBusiness() && in.ProjectRef == "" {
		return &ValidationError{Field: "project_ref", Reason: fmt.Sprintf("required for category %s", in.Category)}
	}

	if in.IsTransfer() {
		if in.SourceAccount == "" {
			return &ValidationError{Field: "source_account", Reason: "no account selected"}
		}
		if in.DestAccount == "" {
			return &ValidationError{Field: "dest_account", Reason: "no account selected"}
		}
		return nil
	}

	if in.Account == "" {
		return &ValidationError{Field: "account", Reason: "no account selected"}
	}
	if in.Handler == "" {
		return &ValidationError{Field: "handler", Reason: "no handler selected"}
	}
	return nil
}

// isCurrencyCode reports whether code is 3 or 4 ASCII letters.
func isCurrencyCode(code string) bool {
	if len(code) < 3 || len(code) > 4 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
