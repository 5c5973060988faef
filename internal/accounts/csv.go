package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/fubangkh/cashbook/internal/model"
)

const (
	numFields = 3
	colName   = 0
	colCur    = 1
	colDesc   = 2
)

var header = []string{"name", "currency", "description"}

// ReadAccounts reads settlement-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes settlement-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colName] = acct.Name
	row[colCur] = acct.Currency
	row[colDesc] = acct.Description
	return row
}

// UnmarshalAccount converts a CSV row to an Account. The description column
// may be omitted.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) < 2 || len(record) > numFields {
		return model.Account{}, fmt.Errorf("expected 2 or %d fields, got %d", numFields, len(record))
	}

	name := strings.TrimSpace(record[colName])
	if name == "" {
		return model.Account{}, fmt.Errorf("empty account name")
	}

	acct := model.Account{
		Name:     name,
		Currency: strings.ToUpper(strings.TrimSpace(record[colCur])),
	}
	if len(record) > colDesc {
		acct.Description = record[colDesc]
	}
	return acct, nil
}
