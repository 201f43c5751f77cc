package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tradeledger/internal/ports"
	"tradeledger/internal/utils"
)

func newListCmd(rc *RootConfig) *cobra.Command {
	var (
		fromStr string
		toStr   string
		symbol  string
		csvOut  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List closes in a time range",
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

			if csvOut {
				return utils.WriteClosedTrades(os.Stdout, trades)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSYMBOL\tSIDE\tQTY\tENTRY\tEXIT\tSTOP\tTAKE\tREASON\tRR\tCLOSED")
			for _, t := range trades {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
					t.ID, t.Symbol, t.Side, num(t.Quantity),
					num(t.EntryPrice), num(t.ExitPrice), num(t.StopPrice), num(t.TakePrice),
					t.Reason, t.RR, t.ClosedAt.UTC().Format(time.RFC3339))
			}
			w.Flush()
			fmt.Printf("%d trades\n", len(trades))
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Range start, inclusive (RFC3339 or YYYY-MM-DD, default epoch)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end, exclusive (default now)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Only closes for this symbol")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Write CSV instead of a table")

	return cmd
}
