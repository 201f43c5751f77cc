package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"

	"github.com/mattn/go-sqlite3"
)

// Repository implements ports.LedgerRepository, ports.PositionStore and
// ports.EventArchive on a single SQLite database.
type Repository struct {
	db           *sql.DB
	logger       ports.Logger
	addedColumns []string
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (creating if necessary) the ledger database, verifies
// the connection and brings the schema up to date.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/tradeledger.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %v: %w", filepath.Dir(dbPath), err, ports.ErrStorageUnavailable)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Open database connection. WAL mode for better concurrency.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %v: %w", dbPath, err, ports.ErrStorageUnavailable)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %v: %w", dbPath, err, ports.ErrStorageUnavailable)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits
	// from limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := repo.migrateSchema(context.Background()); err != nil {
		db.Close()
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified")

	return repo, nil
}

// initializeSchema creates the tables as they existed before the price
// columns were introduced. The price columns themselves are added by
// migrateSchema so that fresh databases and pre-existing ones converge on
// the same shape through the same path.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS closed_trades (
		trade_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL DEFAULT 'LONG',
		quantity REAL NOT NULL DEFAULT 0,
		opened_at TIMESTAMP DEFAULT NULL,
		closed_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS amendments (
		amendment_id TEXT PRIMARY KEY,
		trade_id TEXT NOT NULL,
		prior_entry_price REAL NOT NULL,
		prior_exit_price REAL NOT NULL,
		prior_stop_price REAL NOT NULL,
		prior_take_price REAL NOT NULL,
		prior_reason TEXT NOT NULL,
		prior_rr REAL NOT NULL,
		new_entry_price REAL NOT NULL,
		new_exit_price REAL NOT NULL,
		new_stop_price REAL NOT NULL,
		new_take_price REAL NOT NULL,
		new_reason TEXT NOT NULL,
		new_rr REAL NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		amended_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS open_positions (
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity REAL NOT NULL,
		entry_price REAL NOT NULL,
		stop_price REAL NOT NULL DEFAULT 0,
		take_price REAL NOT NULL DEFAULT 0,
		pending INTEGER NOT NULL DEFAULT 0,
		opened_at TIMESTAMP DEFAULT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (symbol, side)
	);

	CREATE TABLE IF NOT EXISTS event_archive (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		event_type TEXT NOT NULL,
		symbol TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL,
		received_at TIMESTAMP NOT NULL
	);

	-- Indexes for the range query and audit lookups
	CREATE INDEX IF NOT EXISTS idx_closed_trades_closed_at ON closed_trades (closed_at);
	CREATE INDEX IF NOT EXISTS idx_closed_trades_symbol_closed_at ON closed_trades (symbol, closed_at);
	CREATE INDEX IF NOT EXISTS idx_amendments_trade_id ON amendments (trade_id, amended_at);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %v: %w", err, ports.ErrStorageUnavailable)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- LedgerRepository Implementation ---

// CreateTrade saves a new closed trade under its caller-supplied ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.ClosedTrade) error {
	const query = `
	INSERT INTO closed_trades (trade_id, symbol, side, quantity, entry_price, exit_price,
	                           stop_price, take_price, reason, rr, opened_at, closed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var openedAt sql.NullTime
	if !trade.OpenedAt.IsZero() {
		openedAt = sql.NullTime{Time: trade.OpenedAt.UTC(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		trade.ID, trade.Symbol, string(trade.Side), trade.Quantity,
		trade.EntryPrice, trade.ExitPrice, trade.StopPrice, trade.TakePrice,
		string(trade.Reason), trade.RR, openedAt, trade.ClosedAt.UTC())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey || sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return fmt.Errorf("trade %q: %w", trade.ID, ports.ErrDuplicateTrade)
		}
		return fmt.Errorf("failed to insert closed trade %q: %v: %w", trade.ID, err, ports.ErrStorageUnavailable)
	}
	r.logger.Debug(ctx, "Closed trade recorded", map[string]interface{}{"tradeID": trade.ID, "symbol": trade.Symbol, "rr": trade.RR})
	return nil
}

// Amend overwrites the amendable fields of the trade's row and appends the
// amendment to the audit trail in the same transaction, so the ledger never
// shows a corrected row without its audit entry.
func (r *Repository) Amend(ctx context.Context, trade *domain.ClosedTrade, am *domain.Amendment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin amendment transaction for trade %q: %v: %w", trade.ID, err, ports.ErrStorageUnavailable)
	}
	defer tx.Rollback()

	const update = `
	UPDATE closed_trades
	SET entry_price = ?, exit_price = ?, stop_price = ?, take_price = ?, reason = ?, rr = ?
	WHERE trade_id = ?`

	result, err := tx.ExecContext(ctx, update,
		trade.EntryPrice, trade.ExitPrice, trade.StopPrice, trade.TakePrice,
		string(trade.Reason), trade.RR, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to update closed trade %q: %v: %w", trade.ID, err, ports.ErrStorageUnavailable)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for trade %q: %v: %w", trade.ID, err, ports.ErrStorageUnavailable)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade %q not found for amendment: %w", trade.ID, ports.ErrNotFound)
	}

	const insert = `
	INSERT INTO amendments (amendment_id, trade_id,
	                        prior_entry_price, prior_exit_price, prior_stop_price, prior_take_price, prior_reason, prior_rr,
	                        new_entry_price, new_exit_price, new_stop_price, new_take_price, new_reason, new_rr,
	                        note, amended_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, insert,
		am.ID, am.TradeID,
		am.Prior.EntryPrice, am.Prior.ExitPrice, am.Prior.StopPrice, am.Prior.TakePrice, string(am.Prior.Reason), am.Prior.RR,
		am.Corrected.EntryPrice, am.Corrected.ExitPrice, am.Corrected.StopPrice, am.Corrected.TakePrice, string(am.Corrected.Reason), am.Corrected.RR,
		am.Note, am.AmendedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert amendment for trade %q: %v: %w", trade.ID, err, ports.ErrStorageUnavailable)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit amendment for trade %q: %v: %w", trade.ID, err, ports.ErrStorageUnavailable)
	}
	r.logger.Debug(ctx, "Closed trade amended", map[string]interface{}{"tradeID": trade.ID, "amendmentID": am.ID})
	return nil
}

// FindByID retrieves a closed trade by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.ClosedTrade, error) {
	const query = `
	SELECT trade_id, symbol, side, quantity, entry_price, exit_price,
	       stop_price, take_price, reason, rr, opened_at, closed_at
	FROM closed_trades
	WHERE trade_id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	trade, err := scanClosedTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("trade %q: %w", id, ports.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query closed trade %q: %v: %w", id, err, ports.ErrStorageUnavailable)
	}
	return trade, nil
}

// FindRange streams trades whose close time falls in [from, to), ordered by
// close time ascending. The caller owns the returned cursor and must close
// it.
func (r *Repository) FindRange(ctx context.Context, symbol string, from, to time.Time) (ports.TradeCursor, error) {
	query := `
	SELECT trade_id, symbol, side, quantity, entry_price, exit_price,
	       stop_price, take_price, reason, rr, opened_at, closed_at
	FROM closed_trades
	WHERE closed_at >= ? AND closed_at < ?`
	args := []interface{}{from.UTC(), to.UTC()}

	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY closed_at ASC, trade_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades in range: %v: %w", err, ports.ErrStorageUnavailable)
	}
	return &tradeCursor{rows: rows}, nil
}

// FindAmendments retrieves a trade's audit trail, oldest first.
func (r *Repository) FindAmendments(ctx context.Context, tradeID string) ([]*domain.Amendment, error) {
	const query = `
	SELECT amendment_id, trade_id,
	       prior_entry_price, prior_exit_price, prior_stop_price, prior_take_price, prior_reason, prior_rr,
	       new_entry_price, new_exit_price, new_stop_price, new_take_price, new_reason, new_rr,
	       note, amended_at
	FROM amendments
	WHERE trade_id = ?
	ORDER BY amended_at ASC, amendment_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query amendments for trade %q: %v: %w", tradeID, err, ports.ErrStorageUnavailable)
	}
	defer rows.Close()

	amendments := make([]*domain.Amendment, 0)
	for rows.Next() {
		am := &domain.Amendment{}
		var priorReason, newReason string
		err := rows.Scan(
			&am.ID, &am.TradeID,
			&am.Prior.EntryPrice, &am.Prior.ExitPrice, &am.Prior.StopPrice, &am.Prior.TakePrice, &priorReason, &am.Prior.RR,
			&am.Corrected.EntryPrice, &am.Corrected.ExitPrice, &am.Corrected.StopPrice, &am.Corrected.TakePrice, &newReason, &am.Corrected.RR,
			&am.Note, &am.AmendedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan amendment for trade %q: %v: %w", tradeID, err, ports.ErrStorageUnavailable)
		}
		am.Prior.Reason = domain.CloseReason(priorReason)
		am.Corrected.Reason = domain.CloseReason(newReason)
		amendments = append(amendments, am)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating amendment rows: %v: %w", err, ports.ErrStorageUnavailable)
	}
	return amendments, nil
}

// --- Cursor ---

// tradeCursor adapts *sql.Rows to ports.TradeCursor, decoding rows lazily.
type tradeCursor struct {
	rows *sql.Rows
	cur  *domain.ClosedTrade
	err  error
}

func (c *tradeCursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			c.err = fmt.Errorf("error iterating closed trade rows: %v: %w", err, ports.ErrStorageUnavailable)
		}
		return false
	}
	trade, err := scanClosedTrade(c.rows)
	if err != nil {
		c.err = fmt.Errorf("failed to scan closed trade: %v: %w", err, ports.ErrStorageUnavailable)
		return false
	}
	c.cur = trade
	return true
}

func (c *tradeCursor) Trade() *domain.ClosedTrade { return c.cur }

func (c *tradeCursor) Err() error { return c.err }

func (c *tradeCursor) Close() error { return c.rows.Close() }

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanClosedTrade scans a row into a domain.ClosedTrade struct.
func scanClosedTrade(s scanner) (*domain.ClosedTrade, error) {
	t := &domain.ClosedTrade{}
	var side, reason string
	var openedAt sql.NullTime
	err := s.Scan(
		&t.ID, &t.Symbol, &side, &t.Quantity, &t.EntryPrice, &t.ExitPrice,
		&t.StopPrice, &t.TakePrice, &reason, &t.RR, &openedAt, &t.ClosedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if openedAt.Valid {
		t.OpenedAt = openedAt.Time
	}
	t.Side = domain.Side(side)
	t.Reason = domain.CloseReason(reason)
	return t, nil
}
