package domain

import "time"

// Amendment is one entry of a trade's audit trail. The original row is
// corrected in place; the amendment preserves what the row said before and
// after, so the history of every correction survives.
type Amendment struct {
	ID        string      // Unique identifier for the amendment
	TradeID   string      // Trade whose row was corrected
	Prior     TradeValues // Amendable fields as they were before the correction
	Corrected TradeValues // Amendable fields as stored after the correction
	Note      string      // Optional operator-supplied context for the correction
	AmendedAt time.Time   // When the correction was applied
}

// Correction carries the fields a caller wants to change on a recorded
// trade. Nil fields keep their stored value. RR is absent on purpose: it is
// recomputed from the corrected prices, never supplied.
type Correction struct {
	EntryPrice *float64
	ExitPrice  *float64
	StopPrice  *float64
	TakePrice  *float64
	Reason     *CloseReason
	Note       string
}

// Empty reports whether the correction would change nothing.
func (c *Correction) Empty() bool {
	return c.EntryPrice == nil && c.ExitPrice == nil && c.StopPrice == nil &&
		c.TakePrice == nil && c.Reason == nil
}

// ApplyTo returns a copy of the trade with the corrected fields swapped in
// and RR rederived from the resulting prices.
func (c *Correction) ApplyTo(t ClosedTrade) ClosedTrade {
	if c.EntryPrice != nil {
		t.EntryPrice = *c.EntryPrice
	}
	if c.ExitPrice != nil {
		t.ExitPrice = *c.ExitPrice
	}
	if c.StopPrice != nil {
		t.StopPrice = *c.StopPrice
	}
	if c.TakePrice != nil {
		t.TakePrice = *c.TakePrice
	}
	if c.Reason != nil {
		t.Reason = *c.Reason
	}
	t.RR = t.ComputeRR()
	return t
}
