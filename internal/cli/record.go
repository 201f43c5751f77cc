package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tradeledger/internal/domain"
	"tradeledger/pkg/id"
)

func newRecordCmd(rc *RootConfig) *cobra.Command {
	var (
		tradeID string
		symbol  string
		side    string
		qty     float64
		entry   float64
		exit    float64
		stop    float64
		take    float64
		reason  string
		opened  string
		closed  string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one closed trade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			trade := &domain.ClosedTrade{
				ID:         tradeID,
				Symbol:     symbol,
				Quantity:   qty,
				EntryPrice: entry,
				ExitPrice:  exit,
				StopPrice:  stop,
				TakePrice:  take,
			}
			if trade.ID == "" {
				trade.ID = id.New()
			}

			s, ok := domain.ParseSide(side)
			if !ok {
				return fmt.Errorf("bad --side %q (want LONG or SHORT)", side)
			}
			trade.Side = s

			r, ok := domain.ParseCloseReason(reason)
			if !ok {
				return fmt.Errorf("bad --reason %q (want market|stop|take|liquidation|other)", reason)
			}
			trade.Reason = r

			if opened != "" {
				t, err := parseTime(opened)
				if err != nil {
					return fmt.Errorf("bad --opened: %w", err)
				}
				trade.OpenedAt = t
			}
			if closed != "" {
				t, err := parseTime(closed)
				if err != nil {
					return fmt.Errorf("bad --closed: %w", err)
				}
				trade.ClosedAt = t
			}

			rt, err := newRuntime(rc)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			if trade.Symbol == "" {
				trade.Symbol = rt.cfg.DefaultSymbol
			}

			rec, err := rt.ledger.RecordClose(ctx, trade)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded %s: %s %s qty %s, entry %s, exit %s, rr %.2f (%s)\n",
				rec.ID, rec.Symbol, rec.Side, num(rec.Quantity),
				num(rec.EntryPrice), num(rec.ExitPrice), rec.RR, rec.Reason)
			return nil
		},
	}

	cmd.Flags().StringVar(&tradeID, "id", "", "Trade ID (generated when omitted)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Trading symbol (falls back to the configured SYMBOL)")
	cmd.Flags().StringVar(&side, "side", "LONG", "Position side: LONG|SHORT")
	cmd.Flags().Float64Var(&qty, "qty", 0, "Quantity traded")
	cmd.Flags().Float64Var(&entry, "entry", 0, "Entry price")
	cmd.Flags().Float64Var(&exit, "exit", 0, "Exit price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "Stop-loss price (0 = none)")
	cmd.Flags().Float64Var(&take, "take", 0, "Take-profit price (0 = none)")
	cmd.Flags().StringVar(&reason, "reason", "", "Close reason: market|stop|take|liquidation|other")
	cmd.Flags().StringVar(&opened, "opened", "", "Open time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&closed, "closed", "", "Close time (RFC3339 or YYYY-MM-DD, default now)")
	_ = cmd.MarkFlagRequired("entry")
	_ = cmd.MarkFlagRequired("exit")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}
