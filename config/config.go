package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tradeledger/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // "text" (standard log) or "json" (zap)

	// Telegram notifications. Both values must be set together; when unset
	// the ledger runs with notices disabled.
	TelegramToken  string
	TelegramChatID string

	// Tracing
	TracingEnabled bool

	// Reporting
	DefaultSymbol string // symbol assumed by commands when none is given
}

// HasTelegram reports whether Telegram notices are configured.
func (c *Config) HasTelegram() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

// fileConfig mirrors the optional YAML config file. File values sit between
// the built-in defaults and the environment: env vars always win.
type fileConfig struct {
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Symbol    string `yaml:"symbol"`
	Tracing   bool   `yaml:"tracing"`
	Telegram  struct {
		Token  string `yaml:"token"`
		ChatID string `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// Load builds the configuration from (lowest to highest precedence)
// defaults, the optional YAML config file and environment variables (.env
// file included). path may be empty; the LEDGER_CONFIG env var names the
// file in that case.
func Load(path string) (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("LEDGER_CONFIG")
	}
	fc := &fileConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
		}
	}

	cfg := &Config{}
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = resolve("DB_PATH", fc.DBPath, "./data/tradeledger.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(resolve("LOG_LEVEL", fc.LogLevel, "INFO"))
	cfg.LogFormat = strings.ToLower(resolve("LOG_FORMAT", fc.LogFormat, "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be 'text' or 'json', got %q", cfg.LogFormat))
	}

	// Telegram
	cfg.TelegramToken = resolve("TELEGRAM_BOT_TOKEN", fc.Telegram.Token, "")
	cfg.TelegramChatID = resolve("TELEGRAM_CHAT_ID", fc.Telegram.ChatID, "")
	if (cfg.TelegramToken == "") != (cfg.TelegramChatID == "") {
		errs = append(errs, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	// Tracing
	cfg.TracingEnabled = fc.Tracing
	if v := os.Getenv("TRACE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid TRACE_ENABLED: %v", err))
		} else {
			cfg.TracingEnabled = b
		}
	}

	// Reporting
	cfg.DefaultSymbol = resolve("SYMBOL", fc.Symbol, "")

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

// resolve returns the env var when set, else the config-file value, else
// the built-in default.
func resolve(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}
