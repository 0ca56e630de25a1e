package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
)

// SlowQueryThreshold marks queries logged as slow at Warn level
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger writes gorm's statement log through zap
type GormLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormLogger{
		log:   log.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level: level,
		slow:  SlowQueryThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info(fmt.Sprintf(msg, args...), requestField(ctx)...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...), requestField(ctx)...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error(fmt.Sprintf(msg, args...), requestField(ctx)...)
	}
}

// Trace logs failed statements at Error, slow ones at Warn and everything
// else only in Info mode. Missing rows are not failures.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	fields := func() []zap.Field {
		sql, rows := fc()
		return append(requestField(ctx),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error("Query failed", append(fields(), zap.Error(err))...)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		l.log.Warn("Slow query", append(fields(), zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		l.log.Debug("Query", fields()...)
	}
}

func requestField(ctx context.Context) []zap.Field {
	if id := ctxutil.GetRequestID(ctx); id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}
