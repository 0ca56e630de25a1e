package logger

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PerformanceConfig tunes how much the context logger writes
type PerformanceConfig struct {
	SamplingRate    float64       `json:"sampling_rate"`
	MinLogLevel     zapcore.Level `json:"min_log_level"`
	EnableSampling  bool          `json:"enable_sampling"`
	MaxLogPerSecond int           `json:"max_log_per_second"`
	EnableRateLimit bool          `json:"enable_rate_limit"`
}

// DefaultPerformanceConfig logs everything from info up
func DefaultPerformanceConfig() PerformanceConfig {
	return PerformanceConfig{
		SamplingRate:    1.0,
		MinLogLevel:     zapcore.InfoLevel,
		MaxLogPerSecond: 1000,
	}
}

// ProductionConfig samples repeated entries and caps the log rate
func ProductionConfig() PerformanceConfig {
	return PerformanceConfig{
		SamplingRate:    0.1,
		MinLogLevel:     zapcore.InfoLevel,
		EnableSampling:  true,
		MaxLogPerSecond: 500,
		EnableRateLimit: true,
	}
}

// DevelopmentConfig logs everything, debug included
func DevelopmentConfig() PerformanceConfig {
	return PerformanceConfig{
		SamplingRate:    1.0,
		MinLogLevel:     zapcore.DebugLevel,
		MaxLogPerSecond: 10000,
	}
}

// OptimizedLogger gates a zap logger by level and rate
type OptimizedLogger struct {
	config      PerformanceConfig
	logger      *zap.Logger
	rateLimiter *RateLimiter
}

// RateLimiter caps the number of log entries per second
type RateLimiter struct {
	maxLogs   int
	current   int
	lastReset time.Time
	mu        sync.Mutex
}

func NewRateLimiter(maxLogs int) *RateLimiter {
	return &RateLimiter{
		maxLogs:   maxLogs,
		lastReset: time.Now(),
	}
}

func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastReset) >= time.Second {
		rl.current = 0
		rl.lastReset = now
	}

	if rl.current >= rl.maxLogs {
		return false
	}

	rl.current++
	return true
}

// NewOptimizedLogger wraps base. Callers are reported one frame up since
// entries are written from ContextLogBuilder.Log.
func NewOptimizedLogger(config PerformanceConfig, base *zap.Logger) *OptimizedLogger {
	if base == nil {
		base = zap.NewNop()
	}
	zapLogger := base.WithOptions(zap.AddCallerSkip(1))

	if config.EnableSampling && config.SamplingRate > 0 {
		thereafter := int(1 / config.SamplingRate)
		zapLogger = zapLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewSamplerWithOptions(core, time.Second, 100, thereafter)
		}))
	}

	return &OptimizedLogger{
		config:      config,
		logger:      zapLogger,
		rateLimiter: NewRateLimiter(config.MaxLogPerSecond),
	}
}

// ShouldLog reports whether an entry at level passes the level and rate gates
func (ol *OptimizedLogger) ShouldLog(level zapcore.Level) bool {
	if level < ol.config.MinLogLevel {
		return false
	}
	// errors are never rate limited
	if level >= zapcore.ErrorLevel {
		return true
	}
	if ol.config.EnableRateLimit && !ol.rateLimiter.Allow() {
		return false
	}
	return true
}

var (
	optimizedMu     sync.RWMutex
	optimizedLogger *OptimizedLogger
)

func setOptimizedLogger(l *OptimizedLogger) {
	optimizedMu.Lock()
	optimizedLogger = l
	optimizedMu.Unlock()
}

// GetOptimizedLogger returns the context logger. Before InitLogger runs it
// falls back to a stdout production logger.
func GetOptimizedLogger() *OptimizedLogger {
	optimizedMu.RLock()
	l := optimizedLogger
	optimizedMu.RUnlock()
	if l != nil {
		return l
	}

	config := DefaultPerformanceConfig()
	switch os.Getenv("APP_ENV") {
	case "production":
		config = ProductionConfig()
	case "development":
		config = DevelopmentConfig()
	}
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}

	optimizedMu.Lock()
	defer optimizedMu.Unlock()
	if optimizedLogger == nil {
		optimizedLogger = NewOptimizedLogger(config, base)
	}
	return optimizedLogger
}
