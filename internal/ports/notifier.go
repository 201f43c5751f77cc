package ports

import (
	"context"

	"tradeledger/internal/domain"
)

// Notifier pushes human-readable notices about ledger activity to an
// external channel. Delivery is best effort; ledger writes never depend on
// it.
type Notifier interface {
	// NotifyClose announces a newly recorded trade.
	NotifyClose(ctx context.Context, trade *domain.ClosedTrade) error
	// NotifyAmendment announces a correction to a recorded trade.
	NotifyAmendment(ctx context.Context, trade *domain.ClosedTrade, am *domain.Amendment) error
}
