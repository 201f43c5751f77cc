package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
	"tradeledger/pkg/id"
)

// LedgerService orchestrates the closed-trade ledger: it validates incoming
// rows, derives the risk/reward ratio, persists through the repository and
// pushes best-effort notices. It implements ports.Ledger.
type LedgerService struct {
	logger   ports.Logger
	repo     ports.LedgerRepository
	notifier ports.Notifier
}

// NewLedgerService creates a new application service instance. The notifier
// may be nil, in which case notices are skipped.
func NewLedgerService(logger ports.Logger, repo ports.LedgerRepository, notifier ports.Notifier) (*LedgerService, error) {
	if logger == nil || repo == nil {
		return nil, fmt.Errorf("missing required dependencies for LedgerService")
	}
	return &LedgerService{
		logger:   logger,
		repo:     repo,
		notifier: notifier,
	}, nil
}

// RecordClose validates and persists a newly closed trade. The RR field of
// the input is ignored; the stored value is always derived from the prices.
// The input is not mutated; the returned trade is the row as recorded.
func (s *LedgerService) RecordClose(ctx context.Context, trade *domain.ClosedTrade) (*domain.ClosedTrade, error) {
	if trade == nil {
		return nil, fmt.Errorf("trade is required: %w", ports.ErrInvalidRequest)
	}

	rec := *trade
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Symbol = strings.TrimSpace(rec.Symbol)

	if rec.ID == "" {
		return nil, fmt.Errorf("trade ID is required: %w", ports.ErrInvalidRequest)
	}
	if rec.Symbol == "" {
		return nil, fmt.Errorf("trade symbol is required: %w", ports.ErrInvalidRequest)
	}
	switch rec.Side {
	case domain.Long, domain.Short:
	case "":
		rec.Side = domain.Long
	default:
		return nil, fmt.Errorf("side %q is not LONG or SHORT: %w", rec.Side, ports.ErrInvalidRequest)
	}
	if rec.Quantity < 0 {
		return nil, fmt.Errorf("quantity must not be negative: %w", ports.ErrInvalidRequest)
	}
	if rec.ClosedAt.IsZero() {
		rec.ClosedAt = time.Now().UTC()
	}

	if err := validatePrices(&rec); err != nil {
		return nil, err
	}
	if rec.Reason == "" {
		return nil, fmt.Errorf("close reason is required: %w", ports.ErrInvalidReason)
	}
	if !rec.Reason.Valid() {
		return nil, fmt.Errorf("close reason %q: %w", rec.Reason, ports.ErrInvalidReason)
	}

	// rr is derived, never trusted from the caller.
	rec.RR = rec.ComputeRR()

	if err := s.repo.CreateTrade(ctx, &rec); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Closed trade recorded", map[string]interface{}{
		"tradeID": rec.ID,
		"symbol":  rec.Symbol,
		"reason":  rec.Reason,
		"rr":      rec.RR,
	})

	if s.notifier != nil {
		if err := s.notifier.NotifyClose(ctx, &rec); err != nil {
			// The row is durable; a lost notice is only worth a warning.
			s.logger.Warn(ctx, "Close notice delivery failed", map[string]interface{}{
				"tradeID": rec.ID,
				"error":   err.Error(),
			})
		}
	}
	return &rec, nil
}

// AmendClose corrects a recorded trade in place and appends an audit entry
// holding the row before and after. Only the supplied fields change; RR is
// rederived from the corrected prices.
func (s *LedgerService) AmendClose(ctx context.Context, tradeID string, c *domain.Correction) (*domain.ClosedTrade, error) {
	tradeID = strings.TrimSpace(tradeID)
	if tradeID == "" {
		return nil, fmt.Errorf("trade ID is required: %w", ports.ErrInvalidRequest)
	}
	if c == nil || c.Empty() {
		return nil, fmt.Errorf("amendment of trade %q: %w", tradeID, ports.ErrEmptyCorrection)
	}
	if err := validateCorrection(c); err != nil {
		return nil, err
	}

	current, err := s.repo.FindByID(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	corrected := c.ApplyTo(*current)
	am := &domain.Amendment{
		ID:        id.New(),
		TradeID:   tradeID,
		Prior:     current.Values(),
		Corrected: corrected.Values(),
		Note:      strings.TrimSpace(c.Note),
		AmendedAt: time.Now().UTC(),
	}

	if err := s.repo.Amend(ctx, &corrected, am); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Closed trade amended", map[string]interface{}{
		"tradeID":     tradeID,
		"amendmentID": am.ID,
		"rr":          corrected.RR,
	})

	if s.notifier != nil {
		if err := s.notifier.NotifyAmendment(ctx, &corrected, am); err != nil {
			s.logger.Warn(ctx, "Amendment notice delivery failed", map[string]interface{}{
				"tradeID": tradeID,
				"error":   err.Error(),
			})
		}
	}
	return &corrected, nil
}

// GetClose retrieves one recorded trade by ID.
func (s *LedgerService) GetClose(ctx context.Context, tradeID string) (*domain.ClosedTrade, error) {
	tradeID = strings.TrimSpace(tradeID)
	if tradeID == "" {
		return nil, fmt.Errorf("trade ID is required: %w", ports.ErrInvalidRequest)
	}
	return s.repo.FindByID(ctx, tradeID)
}

// ListClosesInRange streams recorded trades whose close time falls in
// [q.From, q.To), ordered by close time ascending.
func (s *LedgerService) ListClosesInRange(ctx context.Context, q ports.RangeQuery) (ports.TradeCursor, error) {
	if q.From.IsZero() || q.To.IsZero() {
		return nil, fmt.Errorf("range bounds are required: %w", ports.ErrInvalidRequest)
	}
	if q.To.Before(q.From) {
		return nil, fmt.Errorf("range end %s precedes start %s: %w", q.To.Format(time.RFC3339), q.From.Format(time.RFC3339), ports.ErrInvalidRequest)
	}
	return s.repo.FindRange(ctx, strings.TrimSpace(q.Symbol), q.From, q.To)
}

// Amendments retrieves the audit trail of one trade, oldest first. The
// trade itself must exist.
func (s *LedgerService) Amendments(ctx context.Context, tradeID string) ([]*domain.Amendment, error) {
	tradeID = strings.TrimSpace(tradeID)
	if tradeID == "" {
		return nil, fmt.Errorf("trade ID is required: %w", ports.ErrInvalidRequest)
	}
	if _, err := s.repo.FindByID(ctx, tradeID); err != nil {
		return nil, err
	}
	return s.repo.FindAmendments(ctx, tradeID)
}

// validatePrices rejects rows whose prices cannot be stored. Entry and exit
// must be strictly positive on new records: 0 there is reserved for rows
// that predate the price columns. Stop and take use 0 as "not set".
func validatePrices(t *domain.ClosedTrade) error {
	checks := []struct {
		name     string
		value    float64
		required bool
	}{
		{name: "entry_price", value: t.EntryPrice, required: true},
		{name: "exit_price", value: t.ExitPrice, required: true},
		{name: "stop_price", value: t.StopPrice},
		{name: "take_price", value: t.TakePrice},
	}
	for _, c := range checks {
		if !domain.ValidPrice(c.value) {
			return fmt.Errorf("%s %v: %w", c.name, c.value, ports.ErrInvalidPrice)
		}
		if c.required && c.value == 0 {
			return fmt.Errorf("%s must be positive on new records: %w", c.name, ports.ErrInvalidPrice)
		}
	}
	return nil
}

// validateCorrection applies the same price rules to whichever fields the
// correction carries.
func validateCorrection(c *domain.Correction) error {
	if c.EntryPrice != nil && (!domain.ValidPrice(*c.EntryPrice) || *c.EntryPrice == 0) {
		return fmt.Errorf("corrected entry_price %v: %w", *c.EntryPrice, ports.ErrInvalidPrice)
	}
	if c.ExitPrice != nil && (!domain.ValidPrice(*c.ExitPrice) || *c.ExitPrice == 0) {
		return fmt.Errorf("corrected exit_price %v: %w", *c.ExitPrice, ports.ErrInvalidPrice)
	}
	if c.StopPrice != nil && !domain.ValidPrice(*c.StopPrice) {
		return fmt.Errorf("corrected stop_price %v: %w", *c.StopPrice, ports.ErrInvalidPrice)
	}
	if c.TakePrice != nil && !domain.ValidPrice(*c.TakePrice) {
		return fmt.Errorf("corrected take_price %v: %w", *c.TakePrice, ports.ErrInvalidPrice)
	}
	if c.Reason != nil && !c.Reason.Valid() {
		return fmt.Errorf("corrected reason %q: %w", *c.Reason, ports.ErrInvalidReason)
	}
	return nil
}
