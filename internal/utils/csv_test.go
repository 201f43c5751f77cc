package utils

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"tradeledger/internal/domain"
)

func TestWriteClosedTrades(t *testing.T) {
	closedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trades := []*domain.ClosedTrade{
		{
			ID:         "trade-1",
			Symbol:     "ETHUSDT",
			Side:       domain.Long,
			Quantity:   0.5,
			EntryPrice: 100,
			ExitPrice:  120,
			StopPrice:  90,
			TakePrice:  120,
			Reason:     domain.ReasonTake,
			RR:         2,
			OpenedAt:   closedAt.Add(-6 * time.Hour),
			ClosedAt:   closedAt,
		},
		{
			ID:       "trade-legacy",
			Symbol:   "BTCUSDT",
			Side:     domain.Short,
			Quantity: 1,
			Reason:   domain.ReasonMarket,
			ClosedAt: closedAt.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	if err := WriteClosedTrades(&buf, trades); err != nil {
		t.Fatalf("WriteClosedTrades failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "trade_id" || records[0][9] != "rr" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][0] != "trade-1" {
		t.Errorf("Expected trade-1 first, got %s", records[1][0])
	}
	if records[1][2] != "LONG" {
		t.Errorf("Expected side LONG, got %s", records[1][2])
	}
	if records[1][9] != "2" {
		t.Errorf("Expected rr 2, got %s", records[1][9])
	}
	if records[1][10] != "2024-03-01T06:00:00Z" {
		t.Errorf("Unexpected opened_at: %s", records[1][10])
	}
	// Legacy rows without an open time leave the column empty.
	if records[2][10] != "" {
		t.Errorf("Expected empty opened_at for legacy row, got %s", records[2][10])
	}
	if records[2][11] != "2024-03-01T13:00:00Z" {
		t.Errorf("Unexpected closed_at: %s", records[2][11])
	}
}

func TestWriteClosedTradesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteClosedTrades(&buf, nil); err != nil {
		t.Fatalf("WriteClosedTrades failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected header only, got %d records", len(records))
	}
}
