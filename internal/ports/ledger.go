package ports

import (
	"context"
	"time"

	"tradeledger/internal/domain"
)

// RangeQuery selects closed trades by close time. From is inclusive, To is
// exclusive. An empty Symbol matches all symbols.
type RangeQuery struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// Ledger is the application-facing surface of the closed-trade ledger.
type Ledger interface {
	// RecordClose validates and persists a newly closed trade. The RR field
	// of the input is ignored; the stored value is always derived from the
	// prices. Returns the trade as recorded.
	RecordClose(ctx context.Context, trade *domain.ClosedTrade) (*domain.ClosedTrade, error)
	// AmendClose corrects a recorded trade in place and appends an audit
	// entry capturing the row before and after. Returns the corrected trade.
	AmendClose(ctx context.Context, id string, c *domain.Correction) (*domain.ClosedTrade, error)
	// GetClose retrieves one recorded trade by ID.
	GetClose(ctx context.Context, id string) (*domain.ClosedTrade, error)
	// ListClosesInRange streams recorded trades matching the query, ordered
	// by close time ascending.
	ListClosesInRange(ctx context.Context, q RangeQuery) (TradeCursor, error)
	// Amendments retrieves the audit trail of one trade, oldest first.
	Amendments(ctx context.Context, id string) ([]*domain.Amendment, error)
}
