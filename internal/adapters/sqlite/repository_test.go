package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
	"tradeledger/pkg/id"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "tradeledger-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func sampleTrade(tradeID string, closedAt time.Time) *domain.ClosedTrade {
	return &domain.ClosedTrade{
		ID:         tradeID,
		Symbol:     "ETHUSDT",
		Side:       domain.Long,
		Quantity:   1.5,
		EntryPrice: 100.0,
		ExitPrice:  110.0,
		StopPrice:  95.0,
		TakePrice:  110.0,
		Reason:     domain.ReasonTake,
		RR:         2.0,
		OpenedAt:   closedAt.Add(-time.Hour),
		ClosedAt:   closedAt,
	}
}

func TestRepository_CreateAndFindTrade(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	trade := sampleTrade("T1", closedAt)

	require.NoError(t, repo.CreateTrade(ctx, trade))

	got, err := repo.FindByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, "T1", got.ID)
	assert.Equal(t, "ETHUSDT", got.Symbol)
	assert.Equal(t, domain.Long, got.Side)
	assert.Equal(t, 1.5, got.Quantity)
	assert.Equal(t, 100.0, got.EntryPrice)
	assert.Equal(t, 110.0, got.ExitPrice)
	assert.Equal(t, 95.0, got.StopPrice)
	assert.Equal(t, 110.0, got.TakePrice)
	assert.Equal(t, domain.ReasonTake, got.Reason)
	assert.Equal(t, 2.0, got.RR)
	assert.True(t, got.ClosedAt.Equal(closedAt))
	assert.True(t, got.OpenedAt.Equal(closedAt.Add(-time.Hour)))
}

func TestRepository_CreateTrade_Duplicate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateTrade(ctx, sampleTrade("T1", closedAt)))

	// Same ID with different values must be refused, first write stands.
	dup := sampleTrade("T1", closedAt)
	dup.ExitPrice = 999.0
	err := repo.CreateTrade(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrDuplicateTrade)

	got, err := repo.FindByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, 110.0, got.ExitPrice)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_Amend(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	trade := sampleTrade("T1", closedAt)
	require.NoError(t, repo.CreateTrade(ctx, trade))

	prior := trade.Values()
	corrected := *trade
	corrected.ExitPrice = 90.0
	corrected.Reason = domain.ReasonStop
	corrected.RR = corrected.ComputeRR()

	am := &domain.Amendment{
		ID:        id.New(),
		TradeID:   "T1",
		Prior:     prior,
		Corrected: corrected.Values(),
		Note:      "fat-fingered exit",
		AmendedAt: closedAt.Add(time.Hour),
	}
	require.NoError(t, repo.Amend(ctx, &corrected, am))

	got, err := repo.FindByID(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.ExitPrice)
	assert.Equal(t, domain.ReasonStop, got.Reason)
	assert.Equal(t, -2.0, got.RR)
	// Fields outside the correction are untouched.
	assert.Equal(t, 100.0, got.EntryPrice)
	assert.Equal(t, 95.0, got.StopPrice)

	trail, err := repo.FindAmendments(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, am.ID, trail[0].ID)
	assert.Equal(t, 110.0, trail[0].Prior.ExitPrice)
	assert.Equal(t, 90.0, trail[0].Corrected.ExitPrice)
	assert.Equal(t, domain.ReasonTake, trail[0].Prior.Reason)
	assert.Equal(t, domain.ReasonStop, trail[0].Corrected.Reason)
	assert.Equal(t, "fat-fingered exit", trail[0].Note)
}

func TestRepository_Amend_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	trade := sampleTrade("ghost", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	am := &domain.Amendment{ID: id.New(), TradeID: "ghost", AmendedAt: time.Now()}
	err := repo.Amend(context.Background(), trade, am)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// The audit insert must have rolled back with the update.
	trail, err := repo.FindAmendments(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestRepository_Amend_TrailOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	trade := sampleTrade("T1", closedAt)
	require.NoError(t, repo.CreateTrade(ctx, trade))

	for i, exit := range []float64{105.0, 102.5} {
		prior := trade.Values()
		trade.ExitPrice = exit
		trade.RR = trade.ComputeRR()
		am := &domain.Amendment{
			ID:        id.New(),
			TradeID:   "T1",
			Prior:     prior,
			Corrected: trade.Values(),
			AmendedAt: closedAt.Add(time.Duration(i+1) * time.Minute),
		}
		require.NoError(t, repo.Amend(ctx, trade, am))
	}

	trail, err := repo.FindAmendments(ctx, "T1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	// Oldest first; each entry's corrected snapshot is the next one's prior.
	assert.Equal(t, 110.0, trail[0].Prior.ExitPrice)
	assert.Equal(t, 105.0, trail[0].Corrected.ExitPrice)
	assert.Equal(t, 105.0, trail[1].Prior.ExitPrice)
	assert.Equal(t, 102.5, trail[1].Corrected.ExitPrice)
}

func TestRepository_FindRange(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seed := []*domain.ClosedTrade{
		sampleTrade("T1", base),
		sampleTrade("T2", base.Add(time.Hour)),
		sampleTrade("T3", base.Add(2*time.Hour)),
	}
	seed[1].Symbol = "BTCUSDT"
	for _, tr := range seed {
		require.NoError(t, repo.CreateTrade(ctx, tr))
	}

	collect := func(cur ports.TradeCursor) []string {
		t.Helper()
		defer cur.Close()
		var ids []string
		for cur.Next() {
			ids = append(ids, cur.Trade().ID)
		}
		require.NoError(t, cur.Err())
		return ids
	}

	t.Run("from inclusive, to exclusive", func(t *testing.T) {
		cur, err := repo.FindRange(ctx, "", base, base.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []string{"T1", "T2"}, collect(cur))
	})

	t.Run("symbol filter", func(t *testing.T) {
		cur, err := repo.FindRange(ctx, "ETHUSDT", base, base.Add(3*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, []string{"T1", "T3"}, collect(cur))
	})

	t.Run("empty range", func(t *testing.T) {
		cur, err := repo.FindRange(ctx, "", base.Add(10*time.Hour), base.Add(11*time.Hour))
		require.NoError(t, err)
		assert.Empty(t, collect(cur))
	})

	t.Run("query is restartable", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			cur, err := repo.FindRange(ctx, "", base, base.Add(3*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, []string{"T1", "T2", "T3"}, collect(cur))
		}
	})
}

// TestRepository_MigratesLegacyTable simulates a database created before the
// price columns shipped: only the base columns exist and rows are already in
// place. Opening the repository must add the columns without touching the
// rows, and the legacy row must read back with the documented defaults.
func TestRepository_MigratesLegacyTable(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tradeledger-legacy-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)
	dbPath := filepath.Join(tmpDir, "legacy.db")

	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`
	CREATE TABLE closed_trades (
		trade_id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL DEFAULT 'LONG',
		quantity REAL NOT NULL DEFAULT 0,
		opened_at TIMESTAMP DEFAULT NULL,
		closed_at TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)
	closedAt := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	_, err = raw.Exec(
		`INSERT INTO closed_trades (trade_id, symbol, side, quantity, closed_at) VALUES (?, ?, ?, ?, ?)`,
		"legacy-1", "ETHUSDT", "LONG", 2.0, closedAt)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	repo, err := NewRepository(Config{DBPath: dbPath, Logger: &mockLogger{}})
	require.NoError(t, err)
	defer repo.Close()

	assert.Equal(t, []string{"entry_price", "exit_price", "stop_price", "take_price", "reason", "rr"}, repo.AddedColumns())

	got, err := repo.FindByID(context.Background(), "legacy-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.EntryPrice)
	assert.Equal(t, 0.0, got.ExitPrice)
	assert.Equal(t, 0.0, got.StopPrice)
	assert.Equal(t, 0.0, got.TakePrice)
	assert.Equal(t, domain.ReasonDefault, got.Reason)
	assert.Equal(t, 0.0, got.RR)
	assert.Equal(t, 2.0, got.Quantity)
	assert.True(t, got.ClosedAt.Equal(closedAt))
}

// TestRepository_MigrationIdempotent reopens the same database several
// times; the column adds must not re-run or disturb stored data.
func TestRepository_MigrationIdempotent(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "tradeledger-reopen-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)
	dbPath := filepath.Join(tmpDir, "reopen.db")

	closedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	repo, err := NewRepository(Config{DBPath: dbPath, Logger: &mockLogger{}})
	require.NoError(t, err)
	require.NoError(t, repo.CreateTrade(context.Background(), sampleTrade("T1", closedAt)))
	require.NoError(t, repo.Close())

	for i := 0; i < 3; i++ {
		repo, err = NewRepository(Config{DBPath: dbPath, Logger: &mockLogger{}})
		require.NoError(t, err)
		assert.Empty(t, repo.AddedColumns())

		got, err := repo.FindByID(context.Background(), "T1")
		require.NoError(t, err)
		assert.Equal(t, 110.0, got.ExitPrice)
		assert.Equal(t, 2.0, got.RR)
		require.NoError(t, repo.Close())
	}
}

func TestRepository_PositionStore(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pos := &domain.OpenPosition{
		Symbol:     "ETHUSDT",
		Side:       domain.Long,
		Quantity:   0,
		EntryPrice: 0,
		StopPrice:  95.0,
		Pending:    true,
		UpdatedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, pos))

	got, err := repo.Find(ctx, "ETHUSDT", domain.Long)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Pending)
	assert.Equal(t, 95.0, got.StopPrice)

	// The entry fill replaces the pending row.
	pos.Pending = false
	pos.Quantity = 1.5
	pos.EntryPrice = 100.0
	pos.OpenedAt = pos.UpdatedAt.Add(time.Minute)
	pos.UpdatedAt = pos.OpenedAt
	require.NoError(t, repo.Upsert(ctx, pos))

	got, err = repo.Find(ctx, "ETHUSDT", domain.Long)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Pending)
	assert.Equal(t, 1.5, got.Quantity)
	assert.Equal(t, 100.0, got.EntryPrice)
	assert.True(t, got.OpenedAt.Equal(pos.OpenedAt))

	// The opposite side is tracked independently.
	short, err := repo.Find(ctx, "ETHUSDT", domain.Short)
	require.NoError(t, err)
	assert.Nil(t, short)

	require.NoError(t, repo.Delete(ctx, "ETHUSDT", domain.Long))
	got, err = repo.Find(ctx, "ETHUSDT", domain.Long)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_Archive(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ev := &domain.RawEvent{
		Source:     "binance-futures",
		EventType:  "ORDER_TRADE_UPDATE",
		Symbol:     "ETHUSDT",
		Payload:    `{"e":"ORDER_TRADE_UPDATE"}`,
		ReceivedAt: time.Now(),
	}
	archiveID, err := repo.Archive(context.Background(), ev)
	require.NoError(t, err)
	assert.Greater(t, archiveID, int64(0))
	assert.Equal(t, archiveID, ev.ID)
}
