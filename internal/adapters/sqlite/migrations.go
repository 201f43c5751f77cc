package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"tradeledger/internal/ports"
)

// closedTradeColumns lists the price and outcome columns added to
// closed_trades after the table first shipped. Order matters only for
// readability; each ALTER is independent. Defaults mark pre-existing rows
// as "value unknown" (0) and "reason unrecorded" (market).
var closedTradeColumns = []struct {
	name string
	ddl  string
}{
	{name: "entry_price", ddl: "entry_price REAL NOT NULL DEFAULT 0"},
	{name: "exit_price", ddl: "exit_price REAL NOT NULL DEFAULT 0"},
	{name: "stop_price", ddl: "stop_price REAL NOT NULL DEFAULT 0"},
	{name: "take_price", ddl: "take_price REAL NOT NULL DEFAULT 0"},
	{name: "reason", ddl: "reason TEXT NOT NULL DEFAULT 'market'"},
	{name: "rr", ddl: "rr REAL NOT NULL DEFAULT 0"},
}

// migrateSchema adds any missing closed_trades columns. It runs on every
// startup and is a no-op once the columns exist, so databases created
// before the columns shipped and databases created today end up identical.
// Existing rows are never rewritten; they surface the column defaults.
func (r *Repository) migrateSchema(ctx context.Context) error {
	existing, err := r.tableColumns(ctx, "closed_trades")
	if err != nil {
		return fmt.Errorf("failed to inspect closed_trades columns: %v: %w", err, ports.ErrMigrationFailed)
	}

	for _, col := range closedTradeColumns {
		if existing[col.name] {
			continue
		}
		if _, err := r.db.ExecContext(ctx, "ALTER TABLE closed_trades ADD COLUMN "+col.ddl); err != nil {
			return fmt.Errorf("failed to add column %s to closed_trades: %v: %w", col.name, err, ports.ErrMigrationFailed)
		}
		r.addedColumns = append(r.addedColumns, col.name)
		r.logger.Info(ctx, "Schema column added", map[string]interface{}{"table": "closed_trades", "column": col.name})
	}
	return nil
}

// AddedColumns reports which closed_trades columns this process added when
// it opened the database. Empty when the schema was already current.
func (r *Repository) AddedColumns() []string {
	return append([]string(nil), r.addedColumns...)
}

// tableColumns returns the set of column names currently on the table.
func (r *Repository) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dfltVal sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltVal, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
