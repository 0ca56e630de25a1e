package logger

import (
	"os"
	"path/filepath"

	"github.com/Payphone-Digital/content-api/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// InitLogger initializes Zap logger with configuration
func InitLogger(cfg *config.Config) error {
	var err error

	// Create logs directory if it doesn't exist
	logsPath := getEnv("LOGS_PATH", "./logs")
	if err = os.MkdirAll(logsPath, 0755); err != nil {
		return err
	}

	// Configure log level based on environment
	var zapLevel zapcore.Level
	switch cfg.App.Environment {
	case "production":
		zapLevel = zapcore.InfoLevel
	default:
		zapLevel = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	infoFile, err := os.OpenFile(filepath.Join(logsPath, "info.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	errorFile, err := os.OpenFile(filepath.Join(logsPath, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		infoFile.Close()
		return err
	}

	debugFile, err := os.OpenFile(filepath.Join(logsPath, "debug.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		infoFile.Close()
		errorFile.Close()
		return err
	}

	infoWriter := zapcore.AddSync(infoFile)
	errorWriter := zapcore.AddSync(errorFile)
	debugWriter := zapcore.AddSync(debugFile)

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if cfg.App.Environment == "production" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	infoCore := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(infoWriter, zapcore.AddSync(os.Stdout)),
		zapLevel,
	)

	errorCore := zapcore.NewCore(
		encoder,
		zapcore.NewMultiWriteSyncer(errorWriter, zapcore.AddSync(os.Stderr)),
		zapcore.ErrorLevel,
	)

	debugCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		debugWriter,
		zapcore.DebugLevel,
	)

	core := zapcore.NewTee(infoCore, errorCore, debugCore)
	SetLogger(zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), cfg.App.Environment)

	return nil
}

// SetLogger installs l as the process logger and rebuilds the context logger
// on top of it. Tests pass zap.NewNop() or an observer core.
func SetLogger(l *zap.Logger, environment string) {
	Logger = l

	perf := DevelopmentConfig()
	if environment == "production" {
		perf = ProductionConfig()
	}
	setOptimizedLogger(NewOptimizedLogger(perf, l))
}

// GetLogger returns the structured logger, falling back to a no-op logger
// before InitLogger has run
func GetLogger() *zap.Logger {
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger
}

// Sync syncs all logs (call this before application exits)
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogRequest logs HTTP request information
func LogRequest(method, path string, statusCode int, duration int64, clientIP string, userAgent string) {
	GetLogger().Info("HTTP Request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", duration),
		zap.String("client_ip", clientIP),
		zap.String("user_agent", userAgent),
	)
}

// LogPanic logs a recovered panic with its stack
func LogPanic(recovered any) {
	GetLogger().Error("Panic recovered",
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}

// LogDatabase logs database operations
func LogDatabase(operation, table string, duration int64, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Int64("duration_ms", duration),
	}, fields...)

	GetLogger().Debug("Database operation", allFields...)
}

// LogAuth logs authentication events
func LogAuth(userID, action string, success bool, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.Bool("success", success),
	}, fields...)

	if success {
		GetLogger().Info("Authentication success", allFields...)
	} else {
		GetLogger().Warn("Authentication failure", allFields...)
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
