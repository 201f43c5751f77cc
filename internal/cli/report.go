package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tradeledger/internal/analytics"
	"tradeledger/internal/ports"
)

func newReportCmd(rc *RootConfig) *cobra.Command {
	var (
		fromStr string
		toStr   string
		symbol  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize performance over a time range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := rangeBounds(fromStr, toStr)
			if err != nil {
				return err
			}

			rt, err := newRuntime(rc)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			cur, err := rt.ledger.ListClosesInRange(ctx, ports.RangeQuery{Symbol: symbol, From: from, To: to})
			if err != nil {
				return err
			}
			trades, err := collectTrades(cur)
			if err != nil {
				return err
			}

			report := analytics.Summarize(trades)
			if report.TotalTrades == 0 {
				fmt.Println("No trades in range.")
				return nil
			}

			fmt.Printf("Closed trades: %d (%s to %s)\n", report.TotalTrades,
				report.FirstClose.UTC().Format(time.RFC3339), report.LastClose.UTC().Format(time.RFC3339))
			fmt.Printf("  Wins: %d  Losses: %d  Flat: %d  Win rate: %.1f%%\n",
				report.Wins, report.Losses, report.Flat, report.WinRate*100)
			fmt.Printf("  Total profit: %.2f\n", report.TotalProfit)
			fmt.Printf("  Max consecutive wins/losses: %d/%d\n",
				report.MaxConsecutiveWins, report.MaxConsecutiveLosses)
			if report.AverageHold > 0 {
				fmt.Printf("  Average hold: %s\n", report.AverageHold.Round(time.Minute))
			}
			if report.RRComputable > 0 {
				fmt.Printf("Risk/reward (%d of %d trades with a stop):\n", report.RRComputable, report.TotalTrades)
				fmt.Printf("  Avg RR: %.2f  Best: %.2f  Worst: %.2f\n", report.AvgRR, report.BestRR, report.WorstRR)
				if report.ProfitFactor > 0 {
					fmt.Printf("  Profit factor: %.2f\n", report.ProfitFactor)
				}
			}
			fmt.Println("Close reasons:")
			for _, rcount := range report.ReasonCounts() {
				fmt.Printf("  %-12s %d\n", rcount.Reason, rcount.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Range start, inclusive (RFC3339 or YYYY-MM-DD, default epoch)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end, exclusive (default now)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Only closes for this symbol")

	return cmd
}
