package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/hubtab/internal/ledger"
	"github.com/cleared-dev/hubtab/internal/model"
	"github.com/cleared-dev/hubtab/internal/render"
	"github.com/cleared-dev/hubtab/internal/session"
)

const barWidth = 30

func newBalanceCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show what each participant owes the lender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.session.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return g.printBalances(cmd.OutOrStdout(), snap)
		},
	}
}

func newHistoryCommand(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List transactions, most recent first, with running balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.session.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			entries := snap.History
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if g.format == render.FormatText {
				return render.HistoryTable(cmd.OutOrStdout(), entries)
			}
			return render.Markdown(cmd.OutOrStdout(), render.HistoryMarkdown(entries), g.format)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 = all)")
	return cmd
}

func newBorrowCommand(g *globals) *cobra.Command {
	var split, memo string

	cmd := &cobra.Command{
		Use:   "borrow <amount> <participant>...",
		Short: "Record money lent to one or more participants",
		Long: `Record money lent to one or more participants.

With --split per-person (the default) every participant is charged the full
amount. With --split even the amount is divided evenly and the remainder
below one unit is dropped.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := model.ParseAmount(args[0])
			if err != nil {
				return err
			}
			mode, err := ledger.ParseSplitMode(split)
			if err != nil {
				return err
			}
			return g.act(cmd, "Recorded", "pick at least one participant and a positive amount",
				func(s *session.Session) (session.Result, error) {
					return s.Borrow(cmd.Context(), ledger.BorrowParams{
						Targets: args[1:],
						Amount:  amount,
						Mode:    mode,
						Memo:    memo,
					})
				})
		},
	}

	cmd.Flags().StringVar(&split, "split", ledger.SplitPerPerson.String(), "per-person or even")
	cmd.Flags().StringVarP(&memo, "memo", "m", "", "note stored with each row")
	return cmd
}

func newRepayCommand(g *globals) *cobra.Command {
	var memo string

	cmd := &cobra.Command{
		Use:   "repay <participant> <amount>",
		Short: "Record a repayment to the lender",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := model.ParseAmount(args[1])
			if err != nil {
				return err
			}
			return g.act(cmd, "Repayment recorded", "amount must be positive",
				func(s *session.Session) (session.Result, error) {
					return s.Repay(cmd.Context(), args[0], amount, memo)
				})
		},
	}

	cmd.Flags().StringVarP(&memo, "memo", "m", "", "note stored with the row")
	return cmd
}

func newTransferCommand(g *globals) *cobra.Command {
	var from, to, reason string

	cmd := &cobra.Command{
		Use:   "transfer <amount> --from <participant> --to <participant>",
		Short: "Move debt from one participant to another",
		Long: `Move debt from one participant to another.

Use this when --to paid --from directly on the lender's behalf: --to now
owes the lender more and --from owes less. The total is unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := model.ParseAmount(args[0])
			if err != nil {
				return err
			}
			return g.act(cmd, "Transfer recorded", "pick two different participants and a positive amount",
				func(s *session.Session) (session.Result, error) {
					return s.Transfer(cmd.Context(), ledger.TransferParams{
						Taker:   to,
						Reducer: from,
						Amount:  amount,
						Reason:  reason,
					})
				})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "participant whose debt goes down")
	cmd.Flags().StringVar(&to, "to", "", "participant who takes the debt on")
	cmd.Flags().StringVar(&reason, "reason", "", "reason appended to both memos")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newSettleCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Zero every balance, keeping the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.act(cmd, "Balances reset to zero", "nothing to settle",
				func(s *session.Session) (session.Result, error) {
					return s.Settle(cmd.Context())
				})
		},
	}
}

func newUndoCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Delete the most recently appended row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ok, snap, err := e.session.Undo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No rows to delete.")
				return nil
			}
			fmt.Fprintln(out, "Removed last row.")
			return g.printBalances(out, snap)
		},
	}
}

func newCheckCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report rows that break the log's sign and pairing rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.session.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			errs := ledger.Validate(snap.Transactions)
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				fmt.Fprintf(out, "%d rows OK.\n", len(snap.Transactions))
				return nil
			}
			for _, ve := range errs {
				fmt.Fprintln(out, ve.Error())
			}
			return fmt.Errorf("%d problems found", len(errs))
		},
	}
}

// act opens the repo, runs one session action and reports the outcome.
func (g *globals) act(cmd *cobra.Command, done, skipped string, fn func(*session.Session) (session.Result, error)) error {
	e, err := g.open(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := fn(e.session)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if res.Records == 0 {
		fmt.Fprintf(out, "Nothing recorded: %s.\n", skipped)
		return nil
	}
	fmt.Fprintf(out, "%s (%d rows).\n", done, res.Records)
	return g.printBalances(out, res.Snapshot)
}

func (g *globals) printBalances(w io.Writer, snap session.Snapshot) error {
	if g.format != render.FormatText {
		return render.Markdown(w, render.BalancesMarkdown(snap.Lender, snap.Rows, snap.Total), g.format)
	}
	if err := render.BalanceTable(w, snap.Lender, snap.Rows, snap.Total); err != nil {
		return err
	}
	return render.BarChart(w, snap.Rows, snap.Total, barWidth)
}
