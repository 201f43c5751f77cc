package ledgerobs

import (
	"context"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
	"tradeledger/internal/trace"
)

// observableLedger decorates every ports.Ledger operation with a trace span
// and duration-stamped logs. The wrapped ledger stays unaware of it.
type observableLedger struct {
	ledger ports.Ledger
	logger ports.Logger
}

var _ ports.Ledger = (*observableLedger)(nil)

// Wrap returns the ledger decorated with spans and operation logs.
func Wrap(ledger ports.Ledger, logger ports.Logger) ports.Ledger {
	return &observableLedger{
		ledger: ledger,
		logger: logger,
	}
}

func (o *observableLedger) RecordClose(ctx context.Context, trade *domain.ClosedTrade) (*domain.ClosedTrade, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.RecordClose")
	defer span.End()

	start := time.Now()
	rec, err := o.ledger.RecordClose(ctx, trade)
	if err != nil {
		o.logger.Error(ctx, err, "RecordClose failed", o.fields(ctx, map[string]interface{}{
			"durationMs": time.Since(start).Milliseconds(),
		}))
		return nil, err
	}
	o.logger.Info(ctx, "RecordClose completed", o.fields(ctx, map[string]interface{}{
		"tradeID":    rec.ID,
		"symbol":     rec.Symbol,
		"rr":         rec.RR,
		"durationMs": time.Since(start).Milliseconds(),
	}))
	return rec, nil
}

func (o *observableLedger) AmendClose(ctx context.Context, id string, c *domain.Correction) (*domain.ClosedTrade, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.AmendClose")
	defer span.End()

	start := time.Now()
	rec, err := o.ledger.AmendClose(ctx, id, c)
	if err != nil {
		o.logger.Error(ctx, err, "AmendClose failed", o.fields(ctx, map[string]interface{}{
			"tradeID":    id,
			"durationMs": time.Since(start).Milliseconds(),
		}))
		return nil, err
	}
	o.logger.Info(ctx, "AmendClose completed", o.fields(ctx, map[string]interface{}{
		"tradeID":    rec.ID,
		"rr":         rec.RR,
		"durationMs": time.Since(start).Milliseconds(),
	}))
	return rec, nil
}

func (o *observableLedger) GetClose(ctx context.Context, id string) (*domain.ClosedTrade, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.GetClose")
	defer span.End()

	rec, err := o.ledger.GetClose(ctx, id)
	if err != nil {
		o.logger.Debug(ctx, "GetClose failed", o.fields(ctx, map[string]interface{}{
			"tradeID": id,
			"error":   err.Error(),
		}))
		return nil, err
	}
	return rec, nil
}

func (o *observableLedger) ListClosesInRange(ctx context.Context, q ports.RangeQuery) (ports.TradeCursor, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.ListClosesInRange")
	defer span.End()

	cur, err := o.ledger.ListClosesInRange(ctx, q)
	if err != nil {
		o.logger.Error(ctx, err, "ListClosesInRange failed", o.fields(ctx, map[string]interface{}{
			"from": q.From,
			"to":   q.To,
		}))
		return nil, err
	}
	return cur, nil
}

func (o *observableLedger) Amendments(ctx context.Context, id string) ([]*domain.Amendment, error) {
	ctx, span := trace.StartSpan(ctx, "ledger.Amendments")
	defer span.End()

	trail, err := o.ledger.Amendments(ctx, id)
	if err != nil {
		o.logger.Debug(ctx, "Amendments failed", o.fields(ctx, map[string]interface{}{
			"tradeID": id,
			"error":   err.Error(),
		}))
		return nil, err
	}
	return trail, nil
}

// fields stamps the trace and span IDs onto the log fields so log lines
// and exported spans can be joined.
func (o *observableLedger) fields(ctx context.Context, m map[string]interface{}) map[string]interface{} {
	if traceID, spanID, ok := trace.Fields(ctx); ok {
		m["traceID"] = traceID
		m["spanID"] = spanID
	}
	return m
}
