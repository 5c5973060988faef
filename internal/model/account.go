package model

// Account is a settlement account that ledger rows are booked against, as
// listed in accounts/settlement-accounts.csv.
type Account struct {
	Name        string
	Currency    string // default currency of the account
	Description string
}
