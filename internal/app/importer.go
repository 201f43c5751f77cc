package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tradeledger/internal/adapters/binancefeed"
	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// EventImporter replays captured exchange payloads into the ledger. Every
// payload is archived verbatim first; order events then update the tracked
// open positions, and reduce-only fills become ledger rows joined with the
// entry context tracked for their (symbol, side).
type EventImporter struct {
	logger    ports.Logger
	ledger    ports.Ledger
	positions ports.PositionStore
	archive   ports.EventArchive
	decoder   *binancefeed.Decoder
}

// NewEventImporter creates a new importer instance.
func NewEventImporter(
	logger ports.Logger,
	ledger ports.Ledger,
	positions ports.PositionStore,
	archive ports.EventArchive,
	decoder *binancefeed.Decoder,
) (*EventImporter, error) {
	if logger == nil || ledger == nil || positions == nil || archive == nil || decoder == nil {
		return nil, fmt.Errorf("missing required dependencies for EventImporter")
	}
	return &EventImporter{
		logger:    logger,
		ledger:    ledger,
		positions: positions,
		archive:   archive,
		decoder:   decoder,
	}, nil
}

// ImportStats summarizes one replay run. Every line read lands in exactly
// one of Malformed, Skipped, PositionUpdates, Duplicates or Closes.
type ImportStats struct {
	Events          int // non-blank lines read
	Archived        int // payloads stored in the raw archive
	Closes          int // ledger rows recorded
	Duplicates      int // close fills already recorded (replay overlap)
	PositionUpdates int // events that changed tracked position state
	Skipped         int // decoded events that produced no change
	Malformed       int // lines that failed to decode
}

// ImportJSONL replays a stream of newline-delimited payloads, one JSON
// object per line. Malformed lines are counted and skipped; storage
// failures abort the run with the stats collected so far.
func (imp *EventImporter) ImportJSONL(ctx context.Context, r io.Reader) (*ImportStats, error) {
	stats := &ImportStats{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("import interrupted at line %d: %w", lineNo, ports.ErrContextCanceled)
		}
		stats.Events++

		if err := imp.processEvent(ctx, line, stats); err != nil {
			if errors.Is(err, ports.ErrMalformedEvent) {
				stats.Malformed++
				imp.logger.Warn(ctx, "Skipping malformed payload", map[string]interface{}{
					"line":  lineNo,
					"error": err.Error(),
				})
				continue
			}
			return stats, fmt.Errorf("import failed at line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed reading event stream: %w", err)
	}

	imp.logger.Info(ctx, "Import finished", map[string]interface{}{
		"events":          stats.Events,
		"closes":          stats.Closes,
		"duplicates":      stats.Duplicates,
		"positionUpdates": stats.PositionUpdates,
		"skipped":         stats.Skipped,
		"malformed":       stats.Malformed,
	})
	return stats, nil
}

func (imp *EventImporter) processEvent(ctx context.Context, payload []byte, stats *ImportStats) error {
	ev, err := imp.decoder.Decode(ctx, payload)
	if err != nil {
		return err
	}

	// Archive before interpreting, so the raw history is complete even for
	// event types this importer does not understand.
	raw := &domain.RawEvent{
		Source:     binancefeed.Source,
		EventType:  ev.Type,
		Symbol:     ev.Symbol,
		Payload:    string(payload),
		ReceivedAt: time.Now().UTC(),
	}
	if _, err := imp.archive.Archive(ctx, raw); err != nil {
		return err
	}
	stats.Archived++

	if ev.Order == nil {
		stats.Skipped++
		return nil
	}
	return imp.applyOrder(ctx, ev.Order, stats)
}

func (imp *EventImporter) applyOrder(ctx context.Context, u *binancefeed.OrderUpdate, stats *ImportStats) error {
	side := u.Direction()

	switch {
	case u.Filled() && u.Closes():
		return imp.recordClose(ctx, u, side, stats)
	case u.Filled():
		return imp.applyEntryFill(ctx, u, side, stats)
	case u.IsNew() && u.IsChildTrigger():
		return imp.attachLevel(ctx, u, side, true, stats)
	case u.Canceled() && u.IsChildTrigger():
		return imp.attachLevel(ctx, u, side, false, stats)
	case u.IsNew():
		return imp.trackPendingEntry(ctx, u, side, stats)
	default:
		stats.Skipped++
		return nil
	}
}

// recordClose turns a reduce-only fill into a ledger row. With no tracked
// entry the row would carry a fabricated entry price, so the fill is
// skipped instead and left in the raw archive for manual recording.
func (imp *EventImporter) recordClose(ctx context.Context, u *binancefeed.OrderUpdate, side domain.Side, stats *ImportStats) error {
	pos, err := imp.positions.Find(ctx, u.Symbol, side)
	if err != nil {
		return err
	}
	if pos == nil || pos.Pending || pos.EntryPrice == 0 {
		stats.Skipped++
		imp.logger.Warn(ctx, "Close fill without tracked entry, not recorded", map[string]interface{}{
			"symbol":  u.Symbol,
			"side":    side,
			"tradeID": u.TradeID,
		})
		return nil
	}

	exit := u.FillPrice
	if exit == 0 {
		exit = u.AvgPrice
	}
	trade := &domain.ClosedTrade{
		ID:         u.LedgerID(),
		Symbol:     u.Symbol,
		Side:       side,
		Quantity:   u.FilledQty,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  exit,
		StopPrice:  pos.StopPrice,
		TakePrice:  pos.TakePrice,
		Reason:     u.CloseReason(),
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   u.TradeTime,
	}

	_, err = imp.ledger.RecordClose(ctx, trade)
	switch {
	case err == nil:
		stats.Closes++
	case errors.Is(err, ports.ErrDuplicateTrade):
		// Replay overlap. The row is already durable; leave the tracked
		// position alone, the earlier pass did the bookkeeping.
		stats.Duplicates++
		imp.logger.Debug(ctx, "Fill already recorded, skipping", map[string]interface{}{"tradeID": trade.ID})
		return nil
	case errors.Is(err, ports.ErrInvalidPrice), errors.Is(err, ports.ErrInvalidReason), errors.Is(err, ports.ErrInvalidRequest):
		stats.Skipped++
		imp.logger.Warn(ctx, "Derived close failed validation, not recorded", map[string]interface{}{
			"tradeID": trade.ID,
			"error":   err.Error(),
		})
		return nil
	default:
		return err
	}

	// Reduce or clear the tracked position.
	remaining := pos.Quantity - u.FilledQty
	if remaining > 0 {
		pos.Quantity = remaining
		pos.UpdatedAt = u.TradeTime
		return imp.positions.Upsert(ctx, pos)
	}
	return imp.positions.Delete(ctx, u.Symbol, side)
}

// applyEntryFill records an opening fill on the tracked position.
func (imp *EventImporter) applyEntryFill(ctx context.Context, u *binancefeed.OrderUpdate, side domain.Side, stats *ImportStats) error {
	pos, err := imp.positions.Find(ctx, u.Symbol, side)
	if err != nil {
		return err
	}
	if pos == nil {
		pos = &domain.OpenPosition{Symbol: u.Symbol, Side: side}
	}

	entry := u.AvgPrice
	if entry == 0 {
		entry = u.FillPrice
	}
	pos.EntryPrice = entry
	pos.Quantity += u.FilledQty
	pos.Pending = false
	if pos.OpenedAt.IsZero() {
		pos.OpenedAt = u.TradeTime
	}
	pos.UpdatedAt = u.TradeTime

	if err := imp.positions.Upsert(ctx, pos); err != nil {
		return err
	}
	stats.PositionUpdates++
	return nil
}

// attachLevel sets or clears a protective level on the tracked position
// when a stop or take-profit child order is placed or canceled. The level
// may arrive before the entry fill; a pending row holds it until then.
func (imp *EventImporter) attachLevel(ctx context.Context, u *binancefeed.OrderUpdate, side domain.Side, set bool, stats *ImportStats) error {
	pos, err := imp.positions.Find(ctx, u.Symbol, side)
	if err != nil {
		return err
	}
	if pos == nil {
		if !set {
			stats.Skipped++
			return nil
		}
		pos = &domain.OpenPosition{Symbol: u.Symbol, Side: side, Pending: true}
	}

	level := 0.0
	if set {
		level = u.StopPrice
	}
	if u.IsTakeProfit() {
		pos.TakePrice = level
	} else {
		pos.StopPrice = level
	}
	pos.UpdatedAt = u.EventTime

	if err := imp.positions.Upsert(ctx, pos); err != nil {
		return err
	}
	stats.PositionUpdates++
	return nil
}

// trackPendingEntry remembers that an entry order exists before any fill,
// so protective levels placed alongside it have a row to land on.
func (imp *EventImporter) trackPendingEntry(ctx context.Context, u *binancefeed.OrderUpdate, side domain.Side, stats *ImportStats) error {
	pos, err := imp.positions.Find(ctx, u.Symbol, side)
	if err != nil {
		return err
	}
	if pos != nil {
		stats.Skipped++
		return nil
	}

	pos = &domain.OpenPosition{
		Symbol:     u.Symbol,
		Side:       side,
		Pending:    true,
		EntryPrice: u.Price, // provisional; the fill overwrites it
		UpdatedAt:  u.EventTime,
	}
	if err := imp.positions.Upsert(ctx, pos); err != nil {
		return err
	}
	stats.PositionUpdates++
	return nil
}
