package utils

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"tradeledger/internal/domain"
)

// WriteClosedTrades streams trades as CSV to w, header first.
func WriteClosedTrades(w io.Writer, trades []*domain.ClosedTrade) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"trade_id", "symbol", "side", "quantity", "entry_price", "exit_price", "stop_price", "take_price", "reason", "rr", "opened_at", "closed_at"})

	for _, t := range trades {
		openedAt := ""
		if !t.OpenedAt.IsZero() {
			openedAt = t.OpenedAt.Format(time.RFC3339)
		}
		writer.Write([]string{
			t.ID,
			t.Symbol,
			string(t.Side),
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.StopPrice, 'f', -1, 64),
			strconv.FormatFloat(t.TakePrice, 'f', -1, 64),
			string(t.Reason),
			strconv.FormatFloat(t.RR, 'f', -1, 64),
			openedAt,
			t.ClosedAt.Format(time.RFC3339),
		})
	}
	return writer.Error()
}

// WriteClosedTradesToCSV writes trades to a new file at filename.
func WriteClosedTradesToCSV(trades []*domain.ClosedTrade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteClosedTrades(file, trades)
}
