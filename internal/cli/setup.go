package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/config"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/content"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/engine"
	"github.com/AdityaKumar3594/Kishan-Saathi/internal/store"
)

// appEnv bundles everything a command needs once flags are parsed.
type appEnv struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
}

// newEnv loads configuration, configures logging, opens the store,
// and builds the engine. Callers must Close.
func newEnv(ctx context.Context, opts *RootOptions) (*appEnv, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	setupLogging(cfg, opts.Verbose)

	provider, err := loadContent(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load content tables", err)
	}

	s, err := store.Open(cfg.Database.SQLitePath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}

	e, err := engine.New(ctx, s, provider)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "initialize engine", err)
	}

	return &appEnv{cfg: cfg, store: s, engine: e}, nil
}

func (e *appEnv) Close() error {
	return e.store.Close()
}

func loadContent(cfg *config.Config) (content.Provider, error) {
	if cfg.Content.TablesPath != "" {
		return content.LoadFile(cfg.Content.TablesPath)
	}
	return content.LoadDefault()
}

// setupLogging installs the process-wide slog handler. Verbose
// overrides the configured level down to debug.
func setupLogging(cfg *config.Config, verbose bool) {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}
