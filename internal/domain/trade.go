package domain

import (
	"math"
	"time"
)

// ClosedTrade is one durable row of the ledger: a position that has been
// fully exited, with the prices that framed it and the realized outcome.
type ClosedTrade struct {
	ID         string      // Caller-supplied unique identifier for the trade
	Symbol     string      // Trading symbol (e.g., "ETHUSDT")
	Side       Side        // Direction of the position that was closed
	Quantity   float64     // Size of the position traded
	EntryPrice float64     // Price at which the position was entered
	ExitPrice  float64     // Price at which the position was exited
	StopPrice  float64     // Stop-loss level attached to the trade; 0 when none was set
	TakePrice  float64     // Take-profit level attached to the trade; 0 when none was set
	Reason     CloseReason // Why the position was closed
	RR         float64     // Realized risk/reward ratio, derived, never caller-supplied
	OpenedAt   time.Time   // Timestamp when the position was entered
	ClosedAt   time.Time   // Timestamp when the position was exited
}

// TradeValues is the amendable slice of a closed trade: the fields a
// correction may touch, snapshotted before and after each amendment.
type TradeValues struct {
	EntryPrice float64
	ExitPrice  float64
	StopPrice  float64
	TakePrice  float64
	Reason     CloseReason
	RR         float64
}

// Values snapshots the amendable fields of the trade.
func (t *ClosedTrade) Values() TradeValues {
	return TradeValues{
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		StopPrice:  t.StopPrice,
		TakePrice:  t.TakePrice,
		Reason:     t.Reason,
		RR:         t.RR,
	}
}

// ComputeRR derives the realized risk/reward ratio from the trade's own
// prices. The stored RR field is always the output of this method.
func (t *ClosedTrade) ComputeRR() float64 {
	return RealizedRR(t.Side, t.EntryPrice, t.ExitPrice, t.StopPrice)
}

// Profit returns the signed quote-currency profit of the trade.
func (t *ClosedTrade) Profit() float64 {
	move := t.ExitPrice - t.EntryPrice
	if t.Side == Short {
		move = -move
	}
	return move * t.Quantity
}

// RealizedRR computes the realized risk/reward ratio of a finished trade:
// the distance the price actually travelled, measured in units of the risk
// taken (distance from entry to stop). The sign follows the trade outcome,
// positive for a win and negative for a loss. A trade with no stop, or a
// stop placed exactly at entry, has undefined risk and yields 0.
func RealizedRR(side Side, entry, exit, stop float64) float64 {
	if stop == 0 {
		return 0
	}
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	move := exit - entry
	if side == Short {
		move = -move
	}
	return move / risk
}

// ValidPrice reports whether p can be stored as a price: a finite,
// non-negative number. 0 is allowed and means "not set" for stop and take
// levels.
func ValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}
