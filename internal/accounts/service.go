package accounts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fubangkh/cashbook/internal/model"
)

// RelPath is the registry file, relative to the repo root.
var RelPath = filepath.Join("accounts", "settlement-accounts.csv")

// Service provides in-memory lookup over the settlement accounts.
type Service struct {
	accounts []model.Account
	byName   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byName := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byName[a.Name] = a
	}
	return &Service{accounts: accounts, byName: byName}
}

// Load reads settlement-accounts.csv from a repo root. A repo without the
// file has no registered accounts.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(filepath.Join(repoRoot, RelPath))
	if errors.Is(err, os.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening settlement accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading settlement accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by name.
func (s *Service) Get(name string) (model.Account, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// Exists reports whether an account name is registered.
func (s *Service) Exists(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// ByCurrency returns all accounts held in currency.
func (s *Service) ByCurrency(currency string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Currency == currency {
			result = append(result, a)
		}
	}
	return result
}

// Add registers a new account.
func (s *Service) Add(acct model.Account) error {
	if acct.Name == "" {
		return errors.New("account name is required")
	}
	if s.Exists(acct.Name) {
		return fmt.Errorf("account %q already exists", acct.Name)
	}
	s.accounts = append(s.accounts, acct)
	s.byName[acct.Name] = acct
	return nil
}

// Save writes the registry to accounts/settlement-accounts.csv.
func (s *Service) Save(repoRoot string) error {
	path := filepath.Join(repoRoot, RelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating settlement accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing settlement accounts: %w", err)
	}
	return nil
}
