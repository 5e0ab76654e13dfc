package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects how log entries are encoded.
type Format string

const (
	// FormatConsole is the colored, human-readable format for terminals.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON object per entry, for log collectors.
	FormatJSON Format = "json"
)

var (
	// mu guards global.
	//nolint:gochecknoglobals // Guards the shared logger.
	mu sync.RWMutex
	// global is the shared logger instance used throughout the application.
	//nolint:gochecknoglobals // Every desk component logs through it.
	global *zap.SugaredLogger
	// defaultLevel is the minimum log level for messages to be processed.
	//nolint:gochecknoglobals // Shared so that config can change the level at runtime.
	defaultLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // If the logging level is not set, the application will have no logs.
	SetLogger(New(defaultLevel, FormatConsole))
}

// New creates a logger writing to stderr, so command output on stdout stays clean.
// A nil level uses the shared atomic level.
func New(level zapcore.LevelEnabler, format Format, options ...zap.Option) *zap.SugaredLogger {
	return NewTo(zapcore.Lock(os.Stderr), level, format, options...)
}

// NewTo creates a logger writing to out.
func NewTo(out zapcore.WriteSyncer, level zapcore.LevelEnabler, format Format, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = defaultLevel
	}

	core := zapcore.NewCore(newEncoder(format), out, level)

	return zap.New(core, options...).Sugar()
}

func newEncoder(format Format) zapcore.Encoder {
	//nolint:exhaustruct // I'm okay with default encoder configuration values.
	cfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		NameKey:          "logger",
		LevelKey:         "level",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: ", ",
	}

	if format == FormatJSON {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncodeDuration = zapcore.MillisDurationEncoder

		return zapcore.NewJSONEncoder(cfg)
	}

	return zapcore.NewConsoleEncoder(cfg)
}

// ParseLogLevel converts string input to zap log level.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "dpanic":
		return zapcore.DPanicLevel, true
	case "panic":
		return zapcore.PanicLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// ParseFormat converts "console" or "json" to a Format. Empty means console.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatConsole:
		return FormatConsole, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return FormatConsole, false
	}
}

// Setup applies a textual level ("debug", "warn") to the global logger.
// Unknown values keep the info level and are reported once.
func Setup(ctx context.Context, level string) {
	if level == "" {
		return
	}

	parsed, ok := ParseLogLevel(level)
	if !ok {
		Warnf(ctx, "Unknown log level %q, using %s", level, parsed)
	}

	SetLevel(parsed)
}

// SetFormat replaces the global logger with one using format.
// Loggers already stored in contexts keep their encoder.
func SetFormat(format Format) {
	SetLogger(New(defaultLevel, format))
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()

	return global
}

// SetLogger sets the global logger.
func SetLogger(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()

	global = l
}

// SetLevel sets the log level for the global logger.
func SetLevel(level zapcore.Level) {
	//nolint: errcheck // Stderr sync errors are not actionable.
	defer Logger().Sync()

	defaultLevel.SetLevel(level)
}

// DebugKV writes a message and key-value pairs
// at the debug level using the logger from the context.
func DebugKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Debugw(message, kvs...)
}

// Info writes an information level message using the logger from the context.
func Info(ctx context.Context, args ...any) {
	FromContext(ctx).Info(args...)
}

// InfoKV writes a message and key-value pairs
// at the information level using the logger from the context.
func InfoKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Infow(message, kvs...)
}

// Warnf writes a formatted warning level message using the logger from the context.
func Warnf(ctx context.Context, format string, args ...any) {
	FromContext(ctx).Warnf(format, args...)
}

// WarnKV writes a message and key-value pairs
// at the warning level using the logger from the context.
func WarnKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Warnw(message, kvs...)
}

// ErrorKV writes a message and key-value pairs
// at the error level using the logger from the context.
func ErrorKV(ctx context.Context, message string, kvs ...any) {
	FromContext(ctx).Errorw(message, kvs...)
}
