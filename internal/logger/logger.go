package logger

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"raven-trader/internal/trace"
)

var sugar *zap.SugaredLogger

// Init builds the global logger from LOG_LEVEL and LOG_FORMAT (json|console).
func Init() error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(getEnvOrDefault("LOG_LEVEL", "INFO")))
	cfg.Encoding = getEnvOrDefault("LOG_FORMAT", "json")
	if cfg.Encoding == "console" {
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	cfg.DisableStacktrace = true

	lg, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	sugar = lg.Sugar()
	zap.ReplaceGlobals(lg)
	return nil
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

// base returns the sugared logger with trace ids from the context attached.
func base(ctx context.Context, skip int) *zap.SugaredLogger {
	s := sugar
	if s == nil {
		s = zap.S()
	}
	if skip > 0 {
		s = s.WithOptions(zap.AddCallerSkip(skip))
	}
	if traceID, spanID, ok := trace.GetTraceFields(ctx); ok {
		s = s.With("trace_id", traceID, "span_id", spanID)
	}
	return s
}

func Debug(ctx context.Context, msg string, args ...any) { base(ctx, 0).Debugw(msg, args...) }
func Info(ctx context.Context, msg string, args ...any)  { base(ctx, 0).Infow(msg, args...) }
func Warn(ctx context.Context, msg string, args ...any)  { base(ctx, 0).Warnw(msg, args...) }
func Error(ctx context.Context, msg string, args ...any) { base(ctx, 0).Errorw(msg, args...) }

func ErrorWithErr(ctx context.Context, msg string, err error, args ...any) {
	trace.RecordError(ctx, err)
	base(ctx, 0).Errorw(msg, append([]any{"error", err}, args...)...)
}

// Skip variants for middleware wrappers, so the reported caller is the code
// that invoked the wrapper rather than the wrapper itself.
func DebugSkip(ctx context.Context, skip int, msg string, args ...any) {
	base(ctx, skip).Debugw(msg, args...)
}
func InfoSkip(ctx context.Context, skip int, msg string, args ...any) {
	base(ctx, skip).Infow(msg, args...)
}
func WarnSkip(ctx context.Context, skip int, msg string, args ...any) {
	base(ctx, skip).Warnw(msg, args...)
}
func ErrorWithErrSkip(ctx context.Context, skip int, msg string, err error, args ...any) {
	trace.RecordError(ctx, err)
	base(ctx, skip).Errorw(msg, append([]any{"error", err}, args...)...)
}

// Decision logs a fusion decision for an asset.
func Decision(ctx context.Context, asset, action string, confidence int, reason string, args ...any) {
	all := append([]any{
		"type", "DECISION",
		"asset", asset,
		"action", action,
		"confidence", confidence,
		"reason", reason,
	}, args...)
	base(ctx, 0).Infow("Decision made", all...)
}

// Trade logs an executed order.
func Trade(ctx context.Context, symbol, side string, qty, price float64, orderID string, args ...any) {
	all := append([]any{
		"type", "TRADE",
		"symbol", symbol,
		"side", side,
		"quantity", qty,
		"price", price,
		"order_id", orderID,
	}, args...)
	base(ctx, 0).Infow("Trade executed", all...)
}

// Risk logs a risk-gate event (skips, caps, circuit breaker).
func Risk(ctx context.Context, asset, event string, args ...any) {
	all := append([]any{
		"type", "RISK",
		"asset", asset,
		"event", event,
	}, args...)
	base(ctx, 0).Warnw("Risk event", all...)
}
