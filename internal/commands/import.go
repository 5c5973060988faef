package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/importer"
	"github.com/fubangkh/cashbook/internal/ledger"
)

func newImportCommand(repoDir *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Record entries from CSV or XLSX files in import/",
		Long: "Import parses every .csv and .xlsx file in import/ (or just the named file),\n" +
			"records its rows as entries and moves it to import/processed/. A file with\n" +
			"an invalid row is rejected whole and left in import/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*repoDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			var files []importer.FileInfo
			if len(args) > 0 {
				path, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
				files = []importer.FileInfo{{Name: filepath.Base(path), Path: path}}
			} else {
				files, err = importer.Scan(rt.root)
				if err != nil {
					return err
				}
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import.")
				return nil
			}

			out := cmd.OutOrStdout()
			var total int
			for _, f := range files {
				recs, err := importer.ParseFile(f.Path)
				if err != nil {
					return err
				}
				if dryRun {
					fmt.Fprintf(out, "%s: %d entries\n", f.Name, len(recs))
					continue
				}

				intents := make([]ledger.Intent, len(recs))
				for i, rec := range recs {
					intents[i] = rec.Intent
					if intents[i].Handler == "" {
						intents[i].Handler = rt.cfg.Business.DefaultHandler
					}
				}

				// All rows of a file are recorded together or not at all.
				ids, err := rt.ledger.SubmitAll(cmd.Context(), intents)
				if err != nil {
					var berr *ledger.BatchError
					if errors.As(err, &berr) {
						return fmt.Errorf("%s line %d: %w", f.Name, recs[berr.Index].Line, berr.Err)
					}
					return fmt.Errorf("%s: %w", f.Name, err)
				}
				n := len(ids)
				total += n

				if filepath.Dir(f.Path) == filepath.Join(rt.root, "import") {
					if err := importer.MarkProcessed(rt.root, f.Name); err != nil {
						return err
					}
				}
				rt.commit(fmt.Sprintf("import: %s (%d entries)", f.Name, n), "import")
				fmt.Fprintf(out, "%s: recorded %d entries\n", f.Name, n)
			}

			if !dryRun {
				fmt.Fprintf(out, "Imported %d entries from %d files\n", total, len(files))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse files without recording entries")
	return cmd
}
