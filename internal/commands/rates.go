package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newRatesCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Show the exchange rates used for conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*repoDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			rates := rt.rates.Rates(cmd.Context())
			codes := make([]string, 0, len(rates))
			for code := range rates {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CURRENCY\tPER USD")
			for _, code := range codes {
				fmt.Fprintf(tw, "%s\t%s\n", code, rates[code].String())
			}
			return tw.Flush()
		},
	}
}
