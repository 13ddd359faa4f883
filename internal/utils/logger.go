// internal/utils/logger.go
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"order-printer/internal/config"
)

const defaultLogFile = "./logs/order-printer.log"

// NewLogger builds the process logger from the logging section of the config.
func NewLogger(cfg *config.LoggingConfig) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	sink, err := writeSyncer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create write syncer: %w", err)
	}

	core := zapcore.NewCore(encoder(cfg.Format), sink, level)

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	), nil
}

func encoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.LevelKey = "level"
	ec.CallerKey = "caller"
	ec.MessageKey = "message"
	ec.StacktraceKey = "stacktrace"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder

	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func writeSyncer(cfg *config.LoggingConfig) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}

	file := cfg.Output
	if file == "" || file == "file" {
		file = defaultLogFile
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   file,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}), nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// PrinterLogger wraps zap.Logger with printer-specific fields
type PrinterLogger struct {
	*zap.Logger
	target string
}

// NewPrinterLogger creates a printer-specific logger
func NewPrinterLogger(base *zap.Logger, target, name string) *PrinterLogger {
	return &PrinterLogger{
		Logger: base.With(
			zap.String("printer_target", target),
			zap.String("printer_name", name),
			zap.String("component", "printer"),
		),
		target: target,
	}
}

// LogConnection logs connect and disconnect events
func (pl *PrinterLogger) LogConnection(action string, attempt int, err error) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.Int("attempt", attempt),
		zap.Bool("success", err == nil),
	}

	if err != nil {
		pl.Warn("Printer connection event", append(fields, zap.Error(err))...)
		return
	}
	pl.Info("Printer connection event", fields...)
}

// LogTeardown logs a swallowed disconnect failure
func (pl *PrinterLogger) LogTeardown(err error) {
	if err == nil {
		pl.Debug("Printer disconnected")
		return
	}
	pl.Warn("Printer teardown failed", zap.Error(err))
}

// JobLogger provides structured logging for a single print job
type JobLogger struct {
	logger    *zap.Logger
	startTime time.Time
}

// NewJobLogger creates a job-specific logger
func NewJobLogger(base *zap.Logger, jobID, target string) *JobLogger {
	return &JobLogger{
		logger: base.With(
			zap.String("job_id", jobID),
			zap.String("printer_target", target),
			zap.String("component", "job"),
		),
		startTime: time.Now(),
	}
}

// Start logs job start
func (jl *JobLogger) Start(fields ...zap.Field) {
	jl.logger.Info("Print job started", append([]zap.Field{
		zap.Time("start_time", jl.startTime),
	}, fields...)...)
}

// Success logs successful job completion
func (jl *JobLogger) Success(fields ...zap.Field) {
	jl.logger.Info("Print job completed", append([]zap.Field{
		zap.Duration("duration", jl.Elapsed()),
		zap.Bool("success", true),
	}, fields...)...)
}

// Error logs job failure
func (jl *JobLogger) Error(err error, fields ...zap.Field) {
	jl.logger.Error("Print job failed", append([]zap.Field{
		zap.Duration("duration", jl.Elapsed()),
		zap.Bool("success", false),
		zap.Error(err),
	}, fields...)...)
}

// Progress logs an intermediate step of the job
func (jl *JobLogger) Progress(message string, fields ...zap.Field) {
	jl.logger.Debug(message, append([]zap.Field{
		zap.Duration("elapsed", jl.Elapsed()),
	}, fields...)...)
}

// Elapsed returns the time since the job logger was created
func (jl *JobLogger) Elapsed() time.Duration {
	return time.Since(jl.startTime)
}

// ServiceLogger provides service-level logging functionality
type ServiceLogger struct {
	*zap.Logger
}

// NewServiceLogger creates a service-specific logger
func NewServiceLogger(base *zap.Logger, serviceName string) *ServiceLogger {
	return &ServiceLogger{
		Logger: base.With(
			zap.String("service", serviceName),
			zap.String("component", "service"),
		),
	}
}

// LogServiceStart logs service startup
func (sl *ServiceLogger) LogServiceStart(version string, fields ...zap.Field) {
	sl.Info("Service starting", append([]zap.Field{zap.String("version", version)}, fields...)...)
}

// LogServiceStop logs service shutdown
func (sl *ServiceLogger) LogServiceStop(reason string) {
	sl.Info("Service stopping", zap.String("reason", reason))
}

// LogAPIRequest logs HTTP API requests at a level derived from the status code
func (sl *ServiceLogger) LogAPIRequest(method, path, requestID, clientIP string, statusCode int, duration time.Duration) {
	level := zapcore.InfoLevel
	if statusCode >= 400 {
		level = zapcore.WarnLevel
	}
	if statusCode >= 500 {
		level = zapcore.ErrorLevel
	}

	if ce := sl.Check(level, "API request"); ce != nil {
		ce.Write(
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.String("client_ip", clientIP),
			zap.Int("status_code", statusCode),
			zap.Duration("duration", duration),
		)
	}
}

// SecurityLogger provides security-related logging
type SecurityLogger struct {
	logger *zap.Logger
}

// NewSecurityLogger creates a security-specific logger
func NewSecurityLogger(base *zap.Logger) *SecurityLogger {
	return &SecurityLogger{logger: base.With(zap.String("component", "security"))}
}

// LogAuthAttempt logs authentication attempts
func (sl *SecurityLogger) LogAuthAttempt(subject, clientIP string, success bool, reason string) {
	level := zapcore.InfoLevel
	if !success {
		level = zapcore.WarnLevel
	}

	if ce := sl.logger.Check(level, "Authentication attempt"); ce != nil {
		ce.Write(
			zap.String("subject", subject),
			zap.String("client_ip", clientIP),
			zap.Bool("success", success),
			zap.String("reason", reason),
		)
	}
}

// LoggerWithRequestID adds request ID to logger
func LoggerWithRequestID(logger *zap.Logger, requestID string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID))
}

// CloseLogger flushes buffered log entries
func CloseLogger(logger *zap.Logger) error {
	return logger.Sync()
}
