package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeLayout is the timestamp layout used when none is configured.
const DefaultTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Options controls how the engine's logger is built.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr or a file path
	TimeLayout string
	Service    string
}

// DevelopmentOptions returns console logging at info level.
func DevelopmentOptions() Options {
	return Options{Level: "info", Format: "console", Output: "stdout", TimeLayout: DefaultTimeLayout}
}

// ProductionOptions returns JSON logging at info level.
func ProductionOptions() Options {
	return Options{Level: "info", Format: "json", Output: "stdout", TimeLayout: DefaultTimeLayout}
}

// New builds a zap logger from opts. An unknown level falls back to info.
func New(opts Options) (*zap.Logger, error) {
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultTimeLayout
	}
	writer, err := openWriter(opts.Output)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(buildEncoder(opts), writer, levelOf(opts.Level))
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	if opts.Service != "" {
		log = log.With(zap.String("service", opts.Service))
	}
	return log, nil
}

// ForEnvironment picks development or production options from the app environment.
func ForEnvironment(env, level string) (*zap.Logger, error) {
	opts := DevelopmentOptions()
	if strings.EqualFold(env, "production") {
		opts = ProductionOptions()
	}
	if level != "" {
		opts.Level = level
	}
	return New(opts)
}

func levelOf(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func buildEncoder(opts Options) zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(opts.TimeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if strings.EqualFold(opts.Format, "console") {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

func openWriter(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.AddSync(os.Stdout), nil
	case "stderr":
		return zapcore.AddSync(os.Stderr), nil
	}
	file, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", output, err)
	}
	return zapcore.AddSync(file), nil
}
