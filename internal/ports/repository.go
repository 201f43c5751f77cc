package ports

import (
	"context"
	"time"

	"tradeledger/internal/domain"
)

// TradeCursor streams the result of a range query one row at a time so
// large ledgers never have to fit in memory. A cursor is single-use; run
// the query again for a fresh one. Close must always be called.
type TradeCursor interface {
	// Next advances to the following row, returning false when the result
	// set is exhausted or reading failed.
	Next() bool
	// Trade returns the row the cursor currently points at.
	Trade() *domain.ClosedTrade
	// Err reports the first error hit while iterating, if any.
	Err() error
	// Close releases the resources backing the cursor.
	Close() error
}

// LedgerRepository defines the interface for the durable store of closed
// trades and their amendment history.
type LedgerRepository interface {
	// CreateTrade saves a new closed trade under its caller-supplied ID.
	// Returns ErrDuplicateTrade when the ID is already recorded.
	CreateTrade(ctx context.Context, trade *domain.ClosedTrade) error
	// Amend overwrites the amendable fields of the trade's row and appends
	// the amendment to the audit trail. Both writes happen atomically.
	Amend(ctx context.Context, trade *domain.ClosedTrade, am *domain.Amendment) error
	// FindByID retrieves a closed trade by its unique ID.
	// Returns ErrNotFound when no trade exists under the ID.
	FindByID(ctx context.Context, id string) (*domain.ClosedTrade, error)
	// FindRange streams trades whose close time falls in [from, to),
	// ordered by close time ascending. An empty symbol matches all symbols.
	FindRange(ctx context.Context, symbol string, from, to time.Time) (TradeCursor, error)
	// FindAmendments retrieves a trade's audit trail, oldest first.
	FindAmendments(ctx context.Context, tradeID string) ([]*domain.Amendment, error)
}

// PositionStore tracks open positions between exchange events so a close
// can be joined with the entry context it belongs to.
type PositionStore interface {
	// Upsert inserts or replaces the row keyed by (symbol, side).
	Upsert(ctx context.Context, pos *domain.OpenPosition) error
	// Find retrieves the tracked position for (symbol, side).
	// Returns nil, nil when none is tracked.
	Find(ctx context.Context, symbol string, side domain.Side) (*domain.OpenPosition, error)
	// Delete removes the row for (symbol, side), if present.
	Delete(ctx context.Context, symbol string, side domain.Side) error
}

// EventArchive persists exchange payloads verbatim before any
// interpretation happens, so every derived row can be traced to its source.
type EventArchive interface {
	// Archive stores one raw payload and returns its assigned ID.
	Archive(ctx context.Context, ev *domain.RawEvent) (int64, error)
}
