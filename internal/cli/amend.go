package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradeledger/internal/domain"
)

func newAmendCmd(rc *RootConfig) *cobra.Command {
	var (
		entry  float64
		exit   float64
		stop   float64
		take   float64
		reason string
		note   string
	)

	cmd := &cobra.Command{
		Use:   "amend <trade-id>",
		Short: "Correct a recorded trade, keeping an audit entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only flags the caller actually set become part of the
			// correction; everything else keeps its stored value.
			c := &domain.Correction{Note: note}
			flags := cmd.Flags()
			if flags.Changed("entry") {
				c.EntryPrice = &entry
			}
			if flags.Changed("exit") {
				c.ExitPrice = &exit
			}
			if flags.Changed("stop") {
				c.StopPrice = &stop
			}
			if flags.Changed("take") {
				c.TakePrice = &take
			}
			if flags.Changed("reason") {
				r, ok := domain.ParseCloseReason(reason)
				if !ok {
					return fmt.Errorf("bad --reason %q (want market|stop|take|liquidation|other)", reason)
				}
				c.Reason = &r
			}

			rt, err := newRuntime(rc)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			trade, err := rt.ledger.AmendClose(ctx, args[0], c)
			if err != nil {
				return err
			}
			fmt.Printf("Amended %s: entry %s, exit %s, stop %s, take %s, reason %s, rr %.2f\n",
				trade.ID, num(trade.EntryPrice), num(trade.ExitPrice),
				num(trade.StopPrice), num(trade.TakePrice), trade.Reason, trade.RR)
			return nil
		},
	}

	cmd.Flags().Float64Var(&entry, "entry", 0, "Corrected entry price")
	cmd.Flags().Float64Var(&exit, "exit", 0, "Corrected exit price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "Corrected stop-loss price (0 = none)")
	cmd.Flags().Float64Var(&take, "take", 0, "Corrected take-profit price (0 = none)")
	cmd.Flags().StringVar(&reason, "reason", "", "Corrected close reason")
	cmd.Flags().StringVar(&note, "note", "", "Why the row is being corrected")

	return cmd
}
