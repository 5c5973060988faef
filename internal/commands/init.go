package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/accounts"
	"github.com/fubangkh/cashbook/internal/config"
	"github.com/fubangkh/cashbook/internal/gitops"
	"github.com/fubangkh/cashbook/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var driver string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cashbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir, name, driver)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&driver, "driver", store.DriverCSV, "ledger store driver (csv, xlsx or sqlite)")

	return cmd
}

func runInit(ctx context.Context, dir, name, driver string) error {
	dirs := []string{
		"ledger",
		"accounts",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(name)
	cfg.Store.Driver = driver
	switch driver {
	case store.DriverXLSX:
		cfg.Store.Path = "ledger/ledger.xlsx"
	case store.DriverSQLite:
		cfg.Store.Path = "ledger/ledger.db"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	svc := accounts.NewService(accounts.DefaultAccounts())
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing settlement accounts: %w", err)
	}

	// An empty ledger with just the header row.
	st, err := store.Open(dir, store.Options{Driver: cfg.Store.Driver, Path: cfg.Store.Path, Sheet: cfg.Store.Sheet})
	if err != nil {
		return fmt.Errorf("opening ledger store: %w", err)
	}
	defer st.Close()
	snap, err := st.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}
	if len(snap.Rows) == 0 {
		if err := st.Write(ctx, nil, snap.Version); err != nil {
			return fmt.Errorf("writing ledger: %w", err)
		}
	}

	gitignore := "exports/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	hash, err := gitops.CommitAll(dir, "init: Initialize "+name, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Printf("Initialized cashbook at %s (%s)\n", dir, hash)
	return nil
}
