package notify

import (
	"context"

	"tradeledger/internal/domain"
)

// Noop is a fallback notifier used when no Telegram chat is configured.
// Every notice is accepted and dropped.
type Noop struct{}

// NewNoop returns a notifier that drops every notice.
func NewNoop() *Noop {
	return &Noop{}
}

// NotifyClose implements ports.Notifier.
func (*Noop) NotifyClose(ctx context.Context, trade *domain.ClosedTrade) error {
	return nil
}

// NotifyAmendment implements ports.Notifier.
func (*Noop) NotifyAmendment(ctx context.Context, trade *domain.ClosedTrade, am *domain.Amendment) error {
	return nil
}
