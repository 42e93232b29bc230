package logger

import (
	"course_sync/internal/config"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 在 InitLogger 之前为空操作 logger，测试中可直接使用
var Log = zap.NewNop()

// InitLogger 文件输出 JSON，控制台输出可读格式；级别无法解析时返回错误，Log 保持不变
func InitLogger(cfg *config.Config) error {
	level, err := resolveLevel(cfg)
	if err != nil {
		return err
	}

	cores := []zapcore.Core{}
	if cfg.Log.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(rotatingFile(&cfg.Log)),
			level,
		))
	}
	if cfg.Log.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}
	if len(cores) == 0 {
		Log = zap.NewNop()
		return nil
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)).
		With(zap.String("service", "course-sync"))
	return nil
}

func resolveLevel(cfg *config.Config) (zapcore.Level, error) {
	if cfg.Log.Level == "" {
		if cfg.Server.Mode == "debug" {
			return zap.DebugLevel, nil
		}
		return zap.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	return level, nil
}

func encoderConfig() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	return enc
}

func rotatingFile(cfg *config.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}
