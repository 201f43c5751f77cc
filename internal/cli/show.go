package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradeledger/internal/domain"
)

func newShowCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show one trade and its amendment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(rc)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			trade, err := rt.ledger.GetClose(ctx, args[0])
			if err != nil {
				return err
			}
			amendments, err := rt.ledger.Amendments(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Trade %s\n", trade.ID)
			fmt.Printf("  Symbol: %s\n", trade.Symbol)
			fmt.Printf("  Side:   %s\n", trade.Side)
			fmt.Printf("  Qty:    %s\n", num(trade.Quantity))
			fmt.Printf("  Entry:  %s\n", num(trade.EntryPrice))
			fmt.Printf("  Exit:   %s\n", num(trade.ExitPrice))
			fmt.Printf("  Stop:   %s\n", num(trade.StopPrice))
			fmt.Printf("  Take:   %s\n", num(trade.TakePrice))
			fmt.Printf("  Reason: %s\n", trade.Reason)
			fmt.Printf("  RR:     %.2f\n", trade.RR)
			if !trade.OpenedAt.IsZero() {
				fmt.Printf("  Opened: %s\n", trade.OpenedAt.UTC().Format(time.RFC3339))
			}
			fmt.Printf("  Closed: %s\n", trade.ClosedAt.UTC().Format(time.RFC3339))

			if len(amendments) == 0 {
				fmt.Println("No amendments.")
				return nil
			}
			fmt.Printf("Amendments (%d):\n", len(amendments))
			for _, am := range amendments {
				fmt.Printf("  %s  %s  %s", am.AmendedAt.UTC().Format(time.RFC3339), am.ID, diffValues(am.Prior, am.Corrected))
				if am.Note != "" {
					fmt.Printf("  (%s)", am.Note)
				}
				fmt.Println()
			}
			return nil
		},
	}
	return cmd
}

// diffValues renders the fields an amendment changed as "old -> new" pairs.
func diffValues(prior, corrected domain.TradeValues) string {
	var parts []string
	if prior.EntryPrice != corrected.EntryPrice {
		parts = append(parts, fmt.Sprintf("entry %s -> %s", num(prior.EntryPrice), num(corrected.EntryPrice)))
	}
	if prior.ExitPrice != corrected.ExitPrice {
		parts = append(parts, fmt.Sprintf("exit %s -> %s", num(prior.ExitPrice), num(corrected.ExitPrice)))
	}
	if prior.StopPrice != corrected.StopPrice {
		parts = append(parts, fmt.Sprintf("stop %s -> %s", num(prior.StopPrice), num(corrected.StopPrice)))
	}
	if prior.TakePrice != corrected.TakePrice {
		parts = append(parts, fmt.Sprintf("take %s -> %s", num(prior.TakePrice), num(corrected.TakePrice)))
	}
	if prior.Reason != corrected.Reason {
		parts = append(parts, fmt.Sprintf("reason %s -> %s", prior.Reason, corrected.Reason))
	}
	if prior.RR != corrected.RR {
		parts = append(parts, fmt.Sprintf("rr %.2f -> %.2f", prior.RR, corrected.RR))
	}
	if len(parts) == 0 {
		return "no field changes"
	}
	return strings.Join(parts, ", ")
}
