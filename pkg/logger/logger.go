package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 日志配置
type Config struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // json | console
	Output     string `mapstructure:"output" yaml:"output"` // stdout | file
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // 天
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// ServiceInfo 写入每条日志的服务信息
type ServiceInfo struct {
	ID      string
	Name    string
	Version string
}

// setDefaults 填充默认值
func setDefaults(cfg *Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 7
	}
}

// NewZap 根据配置创建 zap logger
func NewZap(cfg Config) (*zap.Logger, error) {
	setDefaults(&cfg)

	var syncer zapcore.WriteSyncer
	if cfg.Output == "file" {
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("logger: file output requires file_path")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("logger: create log dir: %w", err)
		}
		syncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			LocalTime:  true,
			Compress:   cfg.Compress,
		})
	} else {
		syncer = zapcore.AddSync(os.Stdout)
	}

	level, err := zap.ParseAtomicLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	// caller / ts 由 kratos valuer 提供
	encoderConfig := zapcore.EncoderConfig{
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	return zap.New(zapcore.NewCore(encoder, syncer, level)), nil
}

// New 创建带服务信息和追踪字段的 kratos logger
// 返回的 cleanup 负责刷盘
func New(cfg Config, info ServiceInfo) (log.Logger, func(), error) {
	z, err := NewZap(cfg)
	if err != nil {
		return nil, nil, err
	}
	zl := NewZapLogger(z)

	logger := log.With(zl,
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", info.ID,
		"service.name", info.Name,
		"service.version", info.Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)
	return logger, func() { _ = zl.Sync() }, nil
}

var _ log.Logger = (*ZapLogger)(nil)

// ZapLogger 将 zap 适配为 kratos log.Logger
type ZapLogger struct {
	log    *zap.Logger
	msgKey string
}

// NewZapLogger 创建适配器
func NewZapLogger(z *zap.Logger) *ZapLogger {
	return &ZapLogger{
		log:    z,
		msgKey: log.DefaultMessageKey,
	}
}

// Log 实现 kratos log.Logger
func (l *ZapLogger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.log.Warn(fmt.Sprint("keyvals must appear in pairs: ", keyvals))
		return nil
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == l.msgKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.log.Debug(msg, fields...)
	case log.LevelInfo:
		l.log.Info(msg, fields...)
	case log.LevelWarn:
		l.log.Warn(msg, fields...)
	case log.LevelError:
		l.log.Error(msg, fields...)
	case log.LevelFatal:
		l.log.Fatal(msg, fields...)
	}
	return nil
}

// Sync 刷新缓冲
func (l *ZapLogger) Sync() error {
	return l.log.Sync()
}

// Zap 返回底层 zap logger
func (l *ZapLogger) Zap() *zap.Logger {
	return l.log
}
