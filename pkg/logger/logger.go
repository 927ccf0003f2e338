package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevel()
)

// Options 日志输出配置
type Options struct {
	Dir        string // 日志目录，为空则只输出到控制台
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Console    bool
}

// DefaultOptions returns the rotation settings used by the service binaries.
func DefaultOptions() Options {
	return Options{
		Dir:        "logs",
		MaxSizeMB:  500,
		MaxBackups: 7,
		MaxAgeDays: 7,
		Console:    true,
	}
}

func NewLogger(serviceName string) *zap.Logger {
	return NewLoggerWithOptions(serviceName, DefaultOptions())
}

func NewLoggerWithOptions(serviceName string, opts Options) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.LevelKey = "level"
	encoderConfig.MessageKey = "msg"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var cores []zapcore.Core
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			panic(err)
		}

		// 使用lumberjack进行日志轮转
		var writer io.Writer = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, serviceName+".log"),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(writer), logLevel))
	}
	if opts.Console {
		// console 输出跟随全局 level，避免 CLI 模式下 debug 刷屏
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(os.Stderr), logLevel))
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).With(zap.String("service", serviceName))
	return logger
}

func SetLogLevel(level string) {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return
	}
	logLevel.SetLevel(zapLevel)
	if logger != nil {
		logger.Info("Log level set to", zap.String("level", level))
	}
}

func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()

	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// NewLoggerWithTrace only attaches ids when ctx carries a valid span.
func NewLoggerWithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if span := SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		return logger.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return logger
}
