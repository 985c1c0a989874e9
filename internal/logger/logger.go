package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yizeng/gab/gin/gorm/raffle-api/internal/config"
)

// Init replaces the global zap logger. Everything logs through zap.L().
// A rotating file sink is added next to stdout when conf.File is set.
func Init(env string, conf *config.LogConfig) error {
	var zapConf zap.Config
	if env == "development" {
		zapConf = zap.NewDevelopmentConfig()
	} else {
		zapConf = zap.NewProductionConfig()
		zapConf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := zapConf.Build()
	if err != nil {
		return fmt.Errorf("zapConf.Build() -> %w", err)
	}

	if conf != nil && conf.File != "" {
		if err = os.MkdirAll(filepath.Dir(conf.File), 0o755); err != nil {
			return fmt.Errorf("os.MkdirAll() -> %w", err)
		}

		rotating := zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays,
			Compress:   conf.Compress,
		})
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			rotating,
			zapConf.Level,
		)
		l = l.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore)
		}))
	}

	zap.ReplaceGlobals(l)

	return nil
}
