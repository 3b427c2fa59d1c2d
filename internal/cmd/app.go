package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/nikbrunner/spotlight/internal/action"
	"github.com/nikbrunner/spotlight/internal/autocomplete"
	"github.com/nikbrunner/spotlight/internal/browser"
	"github.com/nikbrunner/spotlight/internal/engine"
	"github.com/nikbrunner/spotlight/internal/logging"
	"github.com/nikbrunner/spotlight/internal/scheduler"
	"github.com/nikbrunner/spotlight/internal/spaces"
	"github.com/nikbrunner/spotlight/internal/storage"
	"github.com/nikbrunner/spotlight/internal/watcher"
)

type appOptions struct {
	// quiet drops stderr logs while a full-screen program owns the terminal.
	quiet bool
	// watch follows external writes to the profile until Close.
	watch bool
}

// app is the wired pipeline every command runs against.
type app struct {
	cfg        *storage.Config
	configDir  string
	logger     *slog.Logger
	profile    *storage.Profile
	spaces     *spaces.Cache
	provider   *browser.Provider
	env        *browser.Environment
	engine     *engine.Engine
	scheduler  *scheduler.Scheduler
	dispatcher *action.Dispatcher

	closers []func()
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (*storage.Config, string, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = storage.DefaultConfigFilePath()
		if err != nil {
			return nil, "", fmt.Errorf("get config path: %w", err)
		}
	}
	cfg, err := storage.LoadConfig(path)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	dir := filepath.Dir(path)
	cfg.ResolvePaths(dir)
	return cfg, dir, nil
}

func newApp(ctx context.Context, opts appOptions) (_ *app, err error) {
	cfg, dir, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, configDir: dir}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	logCfg := logging.Config{Level: cfg.Log.Level, File: cfg.Log.File}
	if opts.quiet && logCfg.File == "" {
		logCfg.Stderr = io.Discard
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.closers = append(a.closers, cleanup)

	a.profile, err = storage.OpenProfile(cfg.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.profile.Close() })

	a.spaces = spaces.New(a.profile, storage.NewJSONSnapshotStore(cfg.SnapshotPath), spaces.Options{
		RootTitle: cfg.Spaces.RootTitle,
		RootID:    cfg.Spaces.RootID,
		Logger:    logger,
	})

	var remote *autocomplete.Client
	if cfg.Autocomplete.Enabled {
		remote = autocomplete.NewClient(autocomplete.Config{
			Endpoint:      cfg.Autocomplete.Endpoint,
			SearchURL:     cfg.Search.EngineURL,
			Timeout:       cfg.Autocomplete.Timeout,
			RatePerSecond: cfg.Autocomplete.RatePerSecond,
			Logger:        logger,
		})
	}

	providerOpts := browser.ProviderOptions{
		MinQueryLength: cfg.Engine.MinQueryLength,
		FuzzyThreshold: cfg.Engine.FuzzyThreshold,
	}
	if remote != nil {
		a.provider = browser.NewProvider(a.profile, remote, providerOpts)
	} else {
		a.provider = browser.NewProvider(a.profile, nil, providerOpts)
	}

	a.engine = engine.New(a.provider, a.spaces, engine.Options{
		MaxResults:     cfg.Engine.MaxResults,
		MinQueryLength: cfg.Engine.MinQueryLength,
		FuzzyThreshold: cfg.Engine.FuzzyThreshold,
		Logger:         logger,
	})

	a.scheduler, err = scheduler.New(a.engine, a.provider, scheduler.Options{
		Debounce:  cfg.Scheduler.Debounce,
		TTL:       cfg.Scheduler.CacheTTL,
		CacheSize: cfg.Scheduler.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	a.closers = append(a.closers, a.scheduler.Stop)

	a.env = browser.NewEnvironment(a.profile, browser.EnvironmentOptions{
		SearchURL: cfg.Search.EngineURL,
		Open:      openExternal(cfg.OpenExternal),
		Logger:    logger,
	})
	a.dispatcher = action.NewDispatcher(a.env, logger)

	a.profile.OnBookmarksChanged(func() { a.bookmarksChanged(context.Background()) })

	if opts.watch {
		if err := a.watch(ctx); err != nil {
			// edits from other processes go unnoticed until restart
			logger.Warn("profile watcher unavailable", "error", err)
		}
	}
	return a, nil
}

// bookmarksChanged invalidates when the bookmark write counter moved.
// Profile writes that only touch tabs or history leave the caches alone.
func (a *app) bookmarksChanged(ctx context.Context) {
	changed, err := a.profile.BookmarksChanged(ctx)
	if err != nil {
		a.logger.Warn("read bookmarks version", "error", err)
		changed = true
	}
	if changed {
		a.invalidate(ctx)
	}
}

// invalidate drops everything derived from bookmarks.
func (a *app) invalidate(ctx context.Context) {
	if err := a.spaces.Invalidate(ctx); err != nil {
		a.logger.Warn("invalidate collections", "error", err)
	}
	a.scheduler.Purge()
}

func (a *app) watch(ctx context.Context) error {
	w, err := watcher.New(a.cfg.ProfilePath, a.bookmarksChanged, watcher.Options{Logger: a.logger})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("profile watcher stopped", "error", err)
		}
	}()
	a.closers = append(a.closers, func() {
		cancel()
		_ = w.Close()
		<-done
	})
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
