package commands

import (
	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var repoDir string

	rootCmd := &cobra.Command{
		Use:     "cashbook",
		Short:   "Cash-flow ledger for a small business",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&repoDir, "repo", ".", "cashbook directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAddCommand(&repoDir),
		newTransferCommand(&repoDir),
		newCorrectCommand(&repoDir),
		newRecomputeCommand(&repoDir),
		newBalancesCommand(&repoDir),
		newProjectsCommand(&repoDir),
		newRankingCommand(&repoDir),
		newSummaryCommand(&repoDir),
		newRatesCommand(&repoDir),
		newAccountsCommand(&repoDir),
		newImportCommand(&repoDir),
		newExportCommand(&repoDir),
	)

	return rootCmd
}
