package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fubangkh/cashbook/internal/accounts"
	"github.com/fubangkh/cashbook/internal/config"
	"github.com/fubangkh/cashbook/internal/fx"
	"github.com/fubangkh/cashbook/internal/gitops"
	"github.com/fubangkh/cashbook/internal/ledger"
	"github.com/fubangkh/cashbook/internal/logging"
	"github.com/fubangkh/cashbook/internal/store"
)

// runtime holds everything one command invocation needs.
type runtime struct {
	root     string
	cfg      *config.Config
	logger   *slog.Logger
	store    store.Store
	rates    *fx.Provider
	accounts *accounts.Service
	ledger   *ledger.Service
}

// openRuntime loads cashbook.yaml (plus env overrides) from repoDir and wires
// the store, rate provider and ledger service.
func openRuntime(repoDir string) (*runtime, error) {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("loading config (is %s a cashbook? run `cashbook init`): %w", root, err)
	}
	if err := config.ApplyEnv(cfg, root); err != nil {
		return nil, err
	}

	logger := logging.Init(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	st, err := store.Open(root, store.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		Sheet:  cfg.Store.Sheet,
	})
	if err != nil {
		return nil, fmt.Errorf("opening ledger store: %w", err)
	}

	accts, err := accounts.Load(root)
	if err != nil {
		st.Close()
		return nil, err
	}

	opts := []fx.ProviderOption{
		fx.WithRefresh(cfg.Rates.Refresh),
		fx.WithTimeout(cfg.Rates.Timeout),
		fx.WithLogger(logger),
	}
	if len(cfg.Rates.Defaults) > 0 {
		defaults := make(map[string]decimal.Decimal, len(cfg.Rates.Defaults))
		for code, r := range cfg.Rates.Defaults {
			defaults[strings.ToUpper(code)] = decimal.NewFromFloat(r)
		}
		opts = append(opts, fx.WithDefaults(defaults))
	}
	rates := fx.NewProvider(cfg.Rates.URL, opts...)

	svc := ledger.NewService(st, rates,
		ledger.WithLogger(logger),
		ledger.WithAccounts(accts),
		ledger.WithConfirm(cfg.Confirm.Attempts, cfg.Confirm.Interval),
	)

	return &runtime{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		store:    st,
		rates:    rates,
		accounts: accts,
		ledger:   svc,
	}, nil
}

func (rt *runtime) Close() error {
	return rt.store.Close()
}

// commit records the ledger file in git when auto-commit is on and the repo
// is a git repository. Failures are logged, never returned: the entry is
// already stored.
func (rt *runtime) commit(message string, extra ...string) {
	if !rt.cfg.Git.AutoCommit || !gitops.IsRepo(rt.root) {
		return
	}

	paths := append([]string{rt.ledgerPath()}, extra...)
	hash, err := gitops.CommitPaths(rt.root, message, rt.cfg.Git.AuthorName, rt.cfg.Git.AuthorEmail, paths...)
	if err != nil {
		rt.logger.Warn("git commit failed", "error", err)
		return
	}
	if hash != "" {
		rt.logger.Debug("committed", "hash", hash, "message", message)
	}
}

// ledgerPath is the store file relative to the repo root.
func (rt *runtime) ledgerPath() string {
	p := rt.cfg.Store.Path
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(rt.root, p); err == nil {
			return rel
		}
	}
	return p
}
