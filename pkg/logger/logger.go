// Package logger configures the process-wide slog default logger.
// Backend "std" writes slog text/json directly, "zap" bridges slog records
// into a zap core via samber/slog-zap.
package logger

import (
	"log/slog"
	"os"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
)

type Env string

const (
	EnvDev  Env = "dev"
	EnvProd Env = "prod"
)

type Backend string

const (
	BackendStd Backend = "std"
	BackendZap Backend = "zap"
)

type Config struct {
	Env       Env
	Service   string
	Version   string
	Backend   Backend
	AddSource bool
	Debug     bool
}

// Init installs the default slog logger. Safe to call once at startup.
func Init(cfg Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	switch cfg.Backend {
	case BackendZap:
		zcfg := zap.NewProductionConfig()
		if cfg.Env == EnvDev {
			zcfg = zap.NewDevelopmentConfig()
		}
		zl, err := zcfg.Build()
		if err != nil {
			// zap refused its own config; fall back to std text
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource})
			break
		}
		handler = slogzap.Option{
			Level:     level,
			Logger:    zl,
			AddSource: cfg.AddSource,
		}.NewZapHandler()
	default:
		opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}
		if cfg.Env == EnvProd {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}
	}

	l := slog.New(handler)
	if cfg.Service != "" {
		l = l.With("service", cfg.Service, "version", cfg.Version)
	}
	slog.SetDefault(l)
}
