package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/report"
)

func newExportCommand(repoDir *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Write the ledger and reports to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parseMonth(month)
			if err != nil {
				return err
			}
			rows, err := loadRows(cmd, *repoDir)
			if err != nil {
				return err
			}

			path := args[0]
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating export dir: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := report.WriteWorkbook(f, rows, period); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(rows), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "limit the expense ranking to one month (YYYY-MM)")
	return cmd
}
