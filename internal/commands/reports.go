package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/model"
	"github.com/fubangkh/cashbook/internal/report"
)

// parseMonth turns "2025-01" into the matching period. Empty means all time.
func parseMonth(s string) (report.Period, error) {
	if s == "" {
		return report.Period{}, nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return report.Period{}, fmt.Errorf("invalid --month %q (want YYYY-MM)", s)
	}
	return report.MonthPeriod(t.Year(), t.Month()), nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// loadRows opens the ledger and returns its current rows.
func loadRows(cmd *cobra.Command, repoDir string) ([]model.Row, error) {
	rt, err := openRuntime(repoDir)
	if err != nil {
		return nil, err
	}
	defer rt.Close()
	return rt.ledger.Table(cmd.Context())
}

func newBalancesCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Show the balance of every settlement account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows(cmd, *repoDir)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ACCOUNT\tORIGINAL\tUSD")
			for _, b := range report.AccountBalances(rows) {
				original := "-"
				if b.Currency != "" {
					original = report.FormatMoney(b.Original, b.Currency)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Account, original, report.FormatUSD(b.USD))
			}
			return tw.Flush()
		},
	}
}

func newProjectsCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "Show income, expense and net per project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := loadRows(cmd, *repoDir)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "PROJECT\tINCOME\tEXPENSE\tNET")
			for _, p := range report.ProjectBalances(rows) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					p.Project, report.FormatUSD(p.Income), report.FormatUSD(p.Expense), report.FormatUSD(p.Net))
			}
			return tw.Flush()
		},
	}
}

func newRankingCommand(repoDir *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Rank expense categories by USD total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parseMonth(month)
			if err != nil {
				return err
			}
			rows, err := loadRows(cmd, *repoDir)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "#\tCATEGORY\tUSD")
			for i, c := range report.ExpenseRanking(rows, period) {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, c.Category, report.FormatUSD(c.USD))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "limit to one month (YYYY-MM)")
	return cmd
}

func newSummaryCommand(repoDir *string) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show total income, expense and net",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := parseMonth(month)
			if err != nil {
				return err
			}
			rows, err := loadRows(cmd, *repoDir)
			if err != nil {
				return err
			}

			s := report.Summarize(rows, period)
			w := cmd.OutOrStdout()
			if month != "" {
				fmt.Fprintf(w, "Period:  %s\n", month)
			}
			fmt.Fprintf(w, "Entries: %d\n", s.Rows)
			fmt.Fprintf(w, "Income:  %s\n", report.FormatUSD(s.Income))
			fmt.Fprintf(w, "Expense: %s\n", report.FormatUSD(s.Expense))
			fmt.Fprintf(w, "Net:     %s\n", report.FormatUSD(s.Net))
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "limit to one month (YYYY-MM)")
	return cmd
}
