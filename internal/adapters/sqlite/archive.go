package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// --- PositionStore Implementation ---

// Upsert inserts or replaces the tracked position keyed by (symbol, side).
func (r *Repository) Upsert(ctx context.Context, pos *domain.OpenPosition) error {
	const query = `
	INSERT INTO open_positions (symbol, side, quantity, entry_price, stop_price, take_price, pending, opened_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol, side) DO UPDATE SET
		quantity = excluded.quantity,
		entry_price = excluded.entry_price,
		stop_price = excluded.stop_price,
		take_price = excluded.take_price,
		pending = excluded.pending,
		opened_at = excluded.opened_at,
		updated_at = excluded.updated_at`

	var openedAt sql.NullTime
	if !pos.OpenedAt.IsZero() {
		openedAt = sql.NullTime{Time: pos.OpenedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		pos.Symbol, string(pos.Side), pos.Quantity, pos.EntryPrice,
		pos.StopPrice, pos.TakePrice, pos.Pending, openedAt, pos.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert open position %s/%s: %v: %w", pos.Symbol, pos.Side, err, ports.ErrStorageUnavailable)
	}
	r.logger.Debug(ctx, "Open position upserted", map[string]interface{}{"symbol": pos.Symbol, "side": pos.Side, "pending": pos.Pending})
	return nil
}

// Find retrieves the tracked position for (symbol, side).
func (r *Repository) Find(ctx context.Context, symbol string, side domain.Side) (*domain.OpenPosition, error) {
	const query = `
	SELECT symbol, side, quantity, entry_price, stop_price, take_price, pending, opened_at, updated_at
	FROM open_positions
	WHERE symbol = ? AND side = ?`

	pos := &domain.OpenPosition{}
	var posSide string
	var openedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, symbol, string(side)).Scan(
		&pos.Symbol, &posSide, &pos.Quantity, &pos.EntryPrice,
		&pos.StopPrice, &pos.TakePrice, &pos.Pending, &openedAt, &pos.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not an error, just not tracked
		}
		return nil, fmt.Errorf("failed to query open position %s/%s: %v: %w", symbol, side, err, ports.ErrStorageUnavailable)
	}
	if openedAt.Valid {
		pos.OpenedAt = openedAt.Time
	}
	pos.Side = domain.Side(posSide)
	return pos, nil
}

// Delete removes the tracked position for (symbol, side), if present.
func (r *Repository) Delete(ctx context.Context, symbol string, side domain.Side) error {
	const query = `DELETE FROM open_positions WHERE symbol = ? AND side = ?`
	_, err := r.db.ExecContext(ctx, query, symbol, string(side))
	if err != nil {
		return fmt.Errorf("failed to delete open position %s/%s: %v: %w", symbol, side, err, ports.ErrStorageUnavailable)
	}
	return nil
}

// --- EventArchive Implementation ---

// Archive stores one raw exchange payload and returns its assigned ID.
func (r *Repository) Archive(ctx context.Context, ev *domain.RawEvent) (int64, error) {
	const query = `
	INSERT INTO event_archive (source, event_type, symbol, payload, received_at)
	VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		ev.Source, ev.EventType, ev.Symbol, ev.Payload, ev.ReceivedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to archive event: %v: %w", err, ports.ErrStorageUnavailable)
	}
	archiveID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get archive ID: %v: %w", err, ports.ErrStorageUnavailable)
	}
	ev.ID = archiveID
	return archiveID, nil
}
