package domain

import "time"

// RawEvent is one archived exchange payload, kept verbatim so closes can be
// re-derived or re-audited long after the fact.
type RawEvent struct {
	ID         int64     // Assigned by the archive
	Source     string    // Where the payload came from (e.g., "binance-futures")
	EventType  string    // Exchange event type (e.g., "ORDER_TRADE_UPDATE")
	Symbol     string    // Symbol the payload concerns, empty when not applicable
	Payload    string    // The payload exactly as received
	ReceivedAt time.Time // When the payload was archived
}

// CloseEvent is the normalized form of an exchange fill that reduced or
// flattened a position. The importer turns these into ledger rows.
type CloseEvent struct {
	TradeID   string      // Ledger identifier derived from the exchange fill
	Symbol    string      // Trading symbol
	Side      Side        // Direction of the position that was reduced
	Quantity  float64     // Quantity closed by this fill
	ExitPrice float64     // Fill price
	Reason    CloseReason // Derived from the order type that produced the fill
	ClosedAt  time.Time   // Exchange trade time
}
