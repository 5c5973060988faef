package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/accounts"
	"github.com/fubangkh/cashbook/internal/model"
)

func newAccountsCommand(repoDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage settlement accounts",
	}
	cmd.AddCommand(newAccountsListCommand(repoDir), newAccountsAddCommand(repoDir))
	return cmd
}

func newAccountsListCommand(repoDir *string) *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List settlement accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*repoDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			list := rt.accounts.All()
			if currency != "" {
				list = rt.accounts.ByCurrency(strings.ToUpper(currency))
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tCURRENCY\tDESCRIPTION")
			for _, a := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Name, a.Currency, a.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "only accounts held in this currency")
	return cmd
}

func newAccountsAddCommand(repoDir *string) *cobra.Command {
	var currency, description string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a settlement account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*repoDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			acct := model.Account{Name: args[0], Currency: strings.ToUpper(strings.TrimSpace(currency)), Description: description}
			if err := rt.accounts.Add(acct); err != nil {
				return err
			}
			if err := rt.accounts.Save(rt.root); err != nil {
				return err
			}

			rt.commit("accounts: add "+acct.Name, accounts.RelPath)
			fmt.Fprintf(cmd.OutOrStdout(), "Added account %s\n", acct.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "USD", "account currency")
	cmd.Flags().StringVar(&description, "description", "", "account description")
	return cmd
}
