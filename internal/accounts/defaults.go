package accounts

import "github.com/fubangkh/cashbook/internal/model"

// DefaultAccounts returns the settlement accounts a new ledger starts with.
func DefaultAccounts() []model.Account {
	return []model.Account{
		{Name: "现金-USD", Currency: "USD", Description: "Office cash box"},
		{Name: "现金-RMB", Currency: "RMB", Description: "Office cash box"},
		{Name: "银行-USD", Currency: "USD", Description: "Primary bank account"},
		{Name: "银行-RMB", Currency: "RMB", Description: "Mainland bank account"},
		{Name: "备用金", Currency: "USD", Description: "Petty cash held by staff"},
	}
}
