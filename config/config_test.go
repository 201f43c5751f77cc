package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/internal/adapters/logger"
)

// clearEnv blanks every key Load reads so tests only see what they set.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_PATH", "LOG_LEVEL", "LOG_FORMAT",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
		"TRACE_ENABLED", "SYMBOL", "LEDGER_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "./data/tradeledger.db", cfg.DBPath)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.TracingEnabled)
	assert.False(t, cfg.HasTelegram())
	assert.Empty(t, cfg.DefaultSymbol)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/tmp/ledger.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("TRACE_ENABLED", "true")
	t.Setenv("SYMBOL", "ETHUSDT")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ledger.db", cfg.DBPath)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "-100200", cfg.TelegramChatID)
	assert.True(t, cfg.HasTelegram())
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "ETHUSDT", cfg.DefaultSymbol)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/ledger.db
log_level: warn
log_format: json
symbol: BTCUSDT
tracing: true
telegram:
  token: 42:zzz
  chat_id: "77"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/ledger.db", cfg.DBPath)
	assert.Equal(t, logger.LevelWarn, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "BTCUSDT", cfg.DefaultSymbol)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "42:zzz", cfg.TelegramToken)
	assert.Equal(t, "77", cfg.TelegramChatID)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/from/env.db")

	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /from/file.db\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env.db", cfg.DBPath)
}

func TestLoadFileNamedByEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbol: SOLUSDT\n"), 0644))
	t.Setenv("LEDGER_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", cfg.DefaultSymbol)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T)
		errMsg string
	}{
		{
			name:   "bad log format",
			setup:  func(t *testing.T) { t.Setenv("LOG_FORMAT", "xml") },
			errMsg: "LOG_FORMAT",
		},
		{
			name:   "telegram token without chat",
			setup:  func(t *testing.T) { t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc") },
			errMsg: "must be set together",
		},
		{
			name:   "telegram chat without token",
			setup:  func(t *testing.T) { t.Setenv("TELEGRAM_CHAT_ID", "77") },
			errMsg: "must be set together",
		},
		{
			name:   "bad trace toggle",
			setup:  func(t *testing.T) { t.Setenv("TRACE_ENABLED", "maybe") },
			errMsg: "TRACE_ENABLED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tt.setup(t)

			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseLevelUnknownDefaultsToInfo(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
}
