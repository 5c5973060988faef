package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fubangkh/cashbook/internal/ledger"
	"github.com/fubangkh/cashbook/internal/model"
)

// entryFlags are the form fields shared by add, transfer and correct.
type entryFlags struct {
	summary  string
	amount   string
	currency string
	rate     string
	invoice  string
	category string
	project  string
	account  string
	handler  string
	note     string
	from     string
	to       string

	transfer bool
}

func (f *entryFlags) register(cmd *cobra.Command, transfer bool) {
	f.transfer = transfer
	fl := cmd.Flags()
	fl.StringVar(&f.summary, "summary", "", "what the entry is for")
	fl.StringVar(&f.amount, "amount", "", "amount in the original currency")
	fl.StringVar(&f.currency, "currency", "USD", "original currency code")
	fl.StringVar(&f.rate, "rate", "", "units of currency per USD (looked up when empty)")
	fl.StringVar(&f.invoice, "invoice", "", "invoice or receipt number")
	fl.StringVar(&f.handler, "handler", "", "person handling the entry")
	fl.StringVar(&f.note, "note", "", "free-form note")
	if transfer {
		fl.StringVar(&f.from, "from", "", "source settlement account")
		fl.StringVar(&f.to, "to", "", "destination settlement account")
		return
	}
	fl.StringVar(&f.category, "category", "", "income or expense category")
	fl.StringVar(&f.project, "project", "", "project reference")
	fl.StringVar(&f.account, "account", "", "settlement account")
}

func (f *entryFlags) intent(defaultHandler string) (ledger.Intent, error) {
	in := ledger.Intent{
		Summary:       f.summary,
		Currency:      f.currency,
		InvoiceNo:     f.invoice,
		Category:      model.Category(f.category),
		ProjectRef:    f.project,
		Account:       f.account,
		Handler:       f.handler,
		Note:          f.note,
		SourceAccount: f.from,
		DestAccount:   f.to,
	}
	if f.transfer {
		in.Category = model.CategoryTransfer
	}
	if in.Handler == "" {
		in.Handler = defaultHandler
	}

	var err error
	if in.Amount, err = parseDecimalFlag("amount", f.amount); err != nil {
		return ledger.Intent{}, err
	}
	if in.Rate, err = parseDecimalFlag("rate", f.rate); err != nil {
		return ledger.Intent{}, err
	}
	return in, nil
}

// correction starts from the stored row and applies only the flags that
// were set on the command line.
func (f *entryFlags) correction(cmd *cobra.Command, row model.Row) (ledger.Intent, error) {
	usd := row.IncomeUSD.Add(row.ExpenseUSD)
	in := ledger.Intent{
		Summary:    row.Summary,
		Amount:     row.RawAmount,
		Currency:   row.Currency,
		InvoiceNo:  row.InvoiceNo,
		Category:   row.Category,
		ProjectRef: row.ProjectRef,
		Account:    row.Account,
		Handler:    row.Handler,
		Note:       row.Note,
	}
	if in.Amount.IsZero() {
		in.Amount, in.Currency = usd, "USD"
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}

	changed := cmd.Flags().Changed
	text := map[string]*string{
		"summary": &in.Summary,
		"invoice": &in.InvoiceNo,
		"project": &in.ProjectRef,
		"account": &in.Account,
		"handler": &in.Handler,
		"note":    &in.Note,
	}
	values := map[string]string{
		"summary": f.summary,
		"invoice": f.invoice,
		"project": f.project,
		"account": f.account,
		"handler": f.handler,
		"note":    f.note,
	}
	for name, dst := range text {
		if changed(name) {
			*dst = values[name]
		}
	}
	if changed("category") {
		in.Category = model.Category(f.category)
	}
	if changed("currency") {
		in.Currency = f.currency
	}

	var err error
	if changed("amount") {
		if in.Amount, err = parseDecimalFlag("amount", f.amount); err != nil {
			return ledger.Intent{}, err
		}
	}
	switch {
	case changed("rate"):
		if in.Rate, err = parseDecimalFlag("rate", f.rate); err != nil {
			return ledger.Intent{}, err
		}
	case !changed("amount") && !changed("currency") && usd.IsPositive() && in.Amount.IsPositive():
		// Same amount, same currency: keep the stored conversion.
		in.Rate = in.Amount.Div(usd)
	}
	return in, nil
}

func parseDecimalFlag(name, value string) (decimal.Decimal, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q", name, value)
	}
	return d, nil
}

func newAddCommand(repoDir *string) *cobra.Command {
	var flags entryFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, *repoDir, &flags)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newTransferCommand(repoDir *string) *cobra.Command {
	var flags entryFlags

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move funds between two settlement accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submit(cmd, *repoDir, &flags)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func submit(cmd *cobra.Command, repoDir string, flags *entryFlags) error {
	rt, err := openRuntime(repoDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	intent, err := flags.intent(rt.cfg.Business.DefaultHandler)
	if err != nil {
		return err
	}

	ids, err := rt.ledger.Submit(cmd.Context(), intent)
	if err != nil {
		return err
	}

	rt.commit(fmt.Sprintf("entry: %s %s", strings.Join(ids, ","), strings.TrimSpace(intent.Summary)))
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func newCorrectCommand(repoDir *string) *cobra.Command {
	var flags entryFlags

	cmd := &cobra.Command{
		Use:   "correct <entry-id>",
		Short: "Change fields of an existing entry",
		Long:  "Correct rewrites an entry with the given flags. Fields not given keep their stored values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*repoDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			rows, err := rt.ledger.Table(cmd.Context())
			if err != nil {
				return err
			}
			idx := slices.IndexFunc(rows, func(r model.Row) bool { return r.EntryID == args[0] })
			if idx < 0 {
				return fmt.Errorf("%w: %s", ledger.ErrNotFound, args[0])
			}

			intent, err := flags.correction(cmd, rows[idx])
			if err != nil {
				return err
			}
			if err := rt.ledger.Correct(cmd.Context(), args[0], intent); err != nil {
				return err
			}

			rt.commit("correct: " + args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Corrected %s\n", args[0])
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newRecomputeCommand(repoDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild running balances over the whole ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(*repoDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.ledger.Recompute(cmd.Context())
			if err != nil {
				return err
			}

			rt.commit("recompute: running balances")
			fmt.Fprintf(cmd.OutOrStdout(), "Recomputed %d rows\n", n)
			return nil
		},
	}
}
