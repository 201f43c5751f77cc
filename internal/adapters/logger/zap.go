package logger

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements the ports.Logger interface on top of zap's
// production JSON encoder. Used when structured output is wanted (log
// format "json"); the plain StdLogger covers everything else.
type ZapLogger struct {
	zl *zap.Logger
}

// NewZapLogger builds a production zap logger at the given level. Unknown
// level strings fall back to info.
func NewZapLogger(level string) (*ZapLogger, error) {
	config := zap.NewProductionConfig()

	l, err := zapcore.ParseLevel(level)
	if err != nil {
		l = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(l)

	zl, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &ZapLogger{zl: zl}, nil
}

// Sync flushes any buffered log entries. Call before process exit.
func (z *ZapLogger) Sync() error {
	return z.zl.Sync()
}

func toZapFields(err error, fields []map[string]interface{}) []zap.Field {
	merged := mergeFields(fields)
	zf := make([]zap.Field, 0, len(merged)+1)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zf = append(zf, zap.Any(k, merged[k]))
	}
	return zf
}

// Debug logs a message at Debug level.
func (z *ZapLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	z.zl.Debug(msg, toZapFields(nil, fields)...)
}

// Info logs a message at Info level.
func (z *ZapLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	z.zl.Info(msg, toZapFields(nil, fields)...)
}

// Warn logs a message at Warning level.
func (z *ZapLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	z.zl.Warn(msg, toZapFields(nil, fields)...)
}

// Error logs an error message at Error level.
func (z *ZapLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	z.zl.Error(msg, toZapFields(err, fields)...)
}
