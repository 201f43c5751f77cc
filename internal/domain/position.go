package domain

import "time"

// OpenPosition is the tracked state of a position that has not closed yet.
// The importer maintains one row per (symbol, side) so that a later close
// event can be joined with the entry price and protective levels that were
// live when the position was opened.
type OpenPosition struct {
	Symbol     string    // Trading symbol (e.g., "ETHUSDT")
	Side       Side      // Direction of the position
	Quantity   float64   // Current size of the position
	EntryPrice float64   // Average price at which the position was entered
	StopPrice  float64   // Stop-loss level currently attached; 0 when none
	TakePrice  float64   // Take-profit level currently attached; 0 when none
	Pending    bool      // An entry order exists but has not filled yet
	OpenedAt   time.Time // Timestamp of the first fill; zero while pending
	UpdatedAt  time.Time // Timestamp of the last event that touched the row
}

// IsFlat reports whether the position holds no filled quantity.
func (p *OpenPosition) IsFlat() bool {
	return p.Quantity == 0
}
