package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func newZapLogger(cfg config) *zap.Logger {
	var writeSyncer zapcore.WriteSyncer
	if !cfg.disableLogToStderr {
		writeSyncer = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}
	if len(cfg.path) > 0 {
		fileSyncer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.path,
			LocalTime:  cfg.localTime,
			Compress:   cfg.compress,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
		})
		if writeSyncer != nil {
			writeSyncer = zap.CombineWriteSyncers(writeSyncer, fileSyncer)
		} else {
			writeSyncer = fileSyncer
		}
	}

	var encoder zapcore.Encoder
	if cfg.humanFriendly {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, writeSyncer, zap.NewAtomicLevelAt(cfg.level))

	zapOpts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.sampler != nil {
		sampler := cfg.sampler
		zapOpts = append(zapOpts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewSamplerWithOptions(core, sampler.Tick, sampler.First, sampler.Thereafter)
		}))
	}
	zapOpts = append(zapOpts, cfg.zapOpts...)

	return zap.New(core, zapOpts...)
}
