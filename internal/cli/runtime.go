package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradeledger/config"
	"tradeledger/internal/adapters/logger"
	"tradeledger/internal/adapters/notify"
	"tradeledger/internal/adapters/sqlite"
	"tradeledger/internal/app"
	"tradeledger/internal/app/ledgerobs"
	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
	"tradeledger/internal/trace"
)

// runtime is the wired application stack for one command invocation.
type runtime struct {
	cfg    *config.Config
	logger ports.Logger
	repo   *sqlite.Repository
	ledger ports.Ledger

	zlog *logger.ZapLogger // non-nil when the json logger is active
}

// newRuntime loads configuration, applies command-line overrides and wires
// the stack the same way for every command: logger, tracing, repository,
// notifier, service.
func newRuntime(rc *RootConfig) (*runtime, error) {
	cfg, err := config.Load(rc.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command-line flags outrank env and file values.
	if rc.DBPath != "" {
		cfg.DBPath = rc.DBPath
	}
	if rc.LogLevel != "" {
		cfg.LogLevel = logger.ParseLevel(rc.LogLevel)
	}
	if rc.LogFormat != "" {
		format := strings.ToLower(rc.LogFormat)
		if format != "text" && format != "json" {
			return nil, fmt.Errorf("bad --log-format %q (want text or json): %w", rc.LogFormat, ports.ErrConfigurationError)
		}
		cfg.LogFormat = format
	}

	rt := &runtime{cfg: cfg}
	if cfg.LogFormat == "json" {
		zlog, err := logger.NewZapLogger(cfg.LogLevel.String())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		rt.zlog = zlog
		rt.logger = zlog
	} else {
		rt.logger = logger.NewStdLogger(cfg.LogLevel)
	}

	if err := trace.Init(cfg.TracingEnabled); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: rt.logger,
	})
	if err != nil {
		return nil, err
	}
	rt.repo = repo

	var notifier ports.Notifier = notify.NewNoop()
	if cfg.HasTelegram() {
		tg, err := notify.New(notify.Config{
			Token:  cfg.TelegramToken,
			ChatID: cfg.TelegramChatID,
			Logger: rt.logger,
		})
		if err != nil {
			repo.Close()
			return nil, err
		}
		notifier = tg
	}

	svc, err := app.NewLedgerService(rt.logger, repo, notifier)
	if err != nil {
		repo.Close()
		return nil, err
	}
	rt.ledger = svc
	if cfg.TracingEnabled {
		rt.ledger = ledgerobs.Wrap(svc, rt.logger)
	}
	return rt, nil
}

// close releases everything newRuntime opened.
func (rt *runtime) close(ctx context.Context) {
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.logger.Error(ctx, err, "Error closing database repository")
		}
	}
	if err := trace.Shutdown(ctx); err != nil {
		rt.logger.Error(ctx, err, "Error shutting down tracing")
	}
	if rt.zlog != nil {
		_ = rt.zlog.Sync()
	}
}

// parseTime accepts RFC3339 timestamps or bare dates taken as midnight UTC.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q (want RFC3339 or YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

// rangeBounds parses a --from/--to pair. An empty from reaches back to the
// epoch; an empty to runs up to now. The range is half-open: [from, to).
func rangeBounds(fromStr, toStr string) (time.Time, time.Time, error) {
	from := time.Unix(0, 0).UTC()
	to := time.Now().UTC()
	if fromStr != "" {
		t, err := parseTime(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --from: %w", err)
		}
		from = t
	}
	if toStr != "" {
		t, err := parseTime(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad --to: %w", err)
		}
		to = t
	}
	return from, to, nil
}

// collectTrades drains a cursor into a slice and closes it.
func collectTrades(cur ports.TradeCursor) ([]*domain.ClosedTrade, error) {
	defer cur.Close()
	var trades []*domain.ClosedTrade
	for cur.Next() {
		trades = append(trades, cur.Trade())
	}
	return trades, cur.Err()
}

// num renders a price or quantity without trailing zeros.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
