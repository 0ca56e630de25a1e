// Package reporting forwards server errors and panics to Sentry. Without a
// DSN every function is a no-op.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

type Config struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
}

var enabled atomic.Bool

// Init configures the Sentry client. An empty DSN leaves reporting disabled.
func Init(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		SampleRate:  cfg.SampleRate,
	}); err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	enabled.Store(true)

	logger.GetLogger().Info("Sentry reporting enabled",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.SampleRate),
	)
	return nil
}

func Enabled() bool {
	return enabled.Load()
}

// CaptureError reports err with the request identifiers found in ctx
func CaptureError(ctx context.Context, err error) {
	if err == nil || !Enabled() {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		applyContext(scope, ctx)
	})
	hub.CaptureException(err)
}

// CapturePanic reports a recovered panic raised while serving req
func CapturePanic(ctx context.Context, recovered any, req *http.Request) {
	if !Enabled() {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		applyContext(scope, ctx)
		if req != nil {
			scope.SetRequest(req)
		}
		scope.SetLevel(sentry.LevelFatal)
	})
	hub.Recover(recovered)
}

// Flush waits for buffered events, up to timeout
func Flush(timeout time.Duration) {
	if Enabled() {
		sentry.Flush(timeout)
	}
}

func applyContext(scope *sentry.Scope, ctx context.Context) {
	if ctx == nil {
		return
	}
	for tag, value := range map[string]string{
		"request_id":     ctxutil.GetRequestID(ctx),
		"trace_id":       ctxutil.GetTraceID(ctx),
		"correlation_id": ctxutil.GetCorrelationID(ctx),
		"module":         ctxutil.GetModule(ctx),
		"function":       ctxutil.GetFunction(ctx),
	} {
		if value != "" {
			scope.SetTag(tag, value)
		}
	}
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		scope.SetUser(sentry.User{ID: userID, Email: ctxutil.GetUserLogin(ctx)})
	}
}
