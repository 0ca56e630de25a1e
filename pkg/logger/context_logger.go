package logger

import (
	"context"
	"time"

	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogBuilder builds one log entry, enriched with the request
// metadata carried by ctx
type ContextLogBuilder struct {
	logger  *OptimizedLogger
	ctx     context.Context
	level   zapcore.Level
	fields  []zap.Field
	message string
	enabled bool
}

// WithContext starts a builder; the level is decided by Info/Warn/Error/Debug
func (ol *OptimizedLogger) WithContext(ctx context.Context) *ContextLogBuilder {
	return &ContextLogBuilder{
		logger: ol,
		ctx:    ctx,
		level:  zapcore.InfoLevel,
	}
}

func (clb *ContextLogBuilder) Info(message string) *ContextLogBuilder {
	return clb.at(zapcore.InfoLevel, message)
}

func (clb *ContextLogBuilder) Warn(message string) *ContextLogBuilder {
	return clb.at(zapcore.WarnLevel, message)
}

func (clb *ContextLogBuilder) Error(message string) *ContextLogBuilder {
	return clb.at(zapcore.ErrorLevel, message)
}

func (clb *ContextLogBuilder) Debug(message string) *ContextLogBuilder {
	return clb.at(zapcore.DebugLevel, message)
}

func (clb *ContextLogBuilder) at(level zapcore.Level, message string) *ContextLogBuilder {
	clb.enabled = clb.logger.ShouldLog(level)
	if !clb.enabled {
		return clb
	}
	clb.level = level
	clb.message = message
	clb.fields = append(make([]zap.Field, 0, 12), contextFields(clb.ctx)...)
	return clb
}

// contextFields copies the request metadata set by the context middleware
func contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	for _, kv := range [...]struct{ key, value string }{
		{"request_id", ctxutil.GetRequestID(ctx)},
		{"trace_id", ctxutil.GetTraceID(ctx)},
		{"correlation_id", ctxutil.GetCorrelationID(ctx)},
		{"client_ip", ctxutil.GetClientIP(ctx)},
		{"user_agent", ctxutil.GetUserAgent(ctx)},
		{"user_id", ctxutil.GetUserID(ctx)},
		{"module", ctxutil.GetModule(ctx)},
		{"function", ctxutil.GetFunction(ctx)},
	} {
		if kv.value != "" {
			fields = append(fields, zap.String(kv.key, kv.value))
		}
	}
	if d := ctxutil.GetDuration(ctx); d > 0 {
		fields = append(fields, zap.Duration("elapsed", d))
	}
	return fields
}

func (clb *ContextLogBuilder) add(f zap.Field) *ContextLogBuilder {
	if clb.enabled {
		clb.fields = append(clb.fields, f)
	}
	return clb
}

func (clb *ContextLogBuilder) String(key, value string) *ContextLogBuilder {
	return clb.add(zap.String(key, value))
}

func (clb *ContextLogBuilder) Int(key string, value int) *ContextLogBuilder {
	return clb.add(zap.Int(key, value))
}

func (clb *ContextLogBuilder) Int64(key string, value int64) *ContextLogBuilder {
	return clb.add(zap.Int64(key, value))
}

func (clb *ContextLogBuilder) Bool(key string, value bool) *ContextLogBuilder {
	return clb.add(zap.Bool(key, value))
}

func (clb *ContextLogBuilder) Duration(value time.Duration) *ContextLogBuilder {
	return clb.add(zap.Duration("duration", value))
}

func (clb *ContextLogBuilder) Err(err error) *ContextLogBuilder {
	if err == nil {
		return clb
	}
	return clb.add(zap.Error(err))
}

// Fields appends every entry of the map
func (clb *ContextLogBuilder) Fields(fields map[string]any) *ContextLogBuilder {
	for k, v := range fields {
		clb.add(zap.Any(k, v))
	}
	return clb
}

// Log writes the entry. Entries for cancelled requests are still written
// and marked, since they usually explain the cancellation.
func (clb *ContextLogBuilder) Log() {
	if !clb.enabled {
		return
	}
	if clb.ctx != nil && clb.ctx.Err() != nil {
		clb.fields = append(clb.fields, zap.Bool("context_done", true))
	}
	if ce := clb.logger.logger.Check(clb.level, clb.message); ce != nil {
		ce.Write(clb.fields...)
	}
}

func WithContext(ctx context.Context) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx)
}

func InfoWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Info(message)
}

func WarnWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Warn(message)
}

func ErrorWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Error(message)
}

func DebugWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return GetOptimizedLogger().WithContext(ctx).Debug(message)
}
