package browser

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nikbrunner/spotlight/internal/action"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/storage"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

// EnvironmentOptions configures an Environment.
type EnvironmentOptions struct {
	SearchURL string // search engine template, %s is the query
	// Open, when set, is called with every URL a tab is pointed at, e.g.
	// OpenExternal to hand it to the system browser.
	Open   func(url string) error
	Logger *slog.Logger
}

// Environment implements action.Environment over a profile. Navigations
// are recorded in history.
type Environment struct {
	profile *storage.Profile
	opts    EnvironmentOptions
	logger  *slog.Logger
}

// NewEnvironment creates an Environment.
func NewEnvironment(profile *storage.Profile, opts EnvironmentOptions) *Environment {
	if opts.SearchURL == "" {
		opts.SearchURL = storage.DefaultConfig().Search.EngineURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Environment{profile: profile, opts: opts, logger: opts.Logger}
}

func (e *Environment) ActivateTab(ctx context.Context, tabID int) error {
	return e.profile.ActivateTab(ctx, tabID)
}

func (e *Environment) FocusWindow(ctx context.Context, windowID int) error {
	return e.profile.FocusWindow(ctx, windowID)
}

func (e *Environment) NavigateTab(ctx context.Context, tabID int, url string) error {
	if err := e.profile.NavigateTab(ctx, tabID, url, ""); err != nil {
		return err
	}
	if err := e.profile.ActivateTab(ctx, tabID); err != nil {
		return err
	}
	return e.visited(ctx, url)
}

func (e *Environment) CreateTab(ctx context.Context, url string) error {
	if _, err := e.profile.CreateTab(ctx, url, ""); err != nil {
		return err
	}
	return e.visited(ctx, url)
}

// ActiveTab returns nil, nil when no tab is open.
func (e *Environment) ActiveTab(ctx context.Context) (*model.TabRecord, error) {
	tab, err := e.profile.ActiveTab(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return tab, err
}

// Search opens the search engine results for text. A current-tab search
// with no tab open opens a new one.
func (e *Environment) Search(ctx context.Context, text string, disposition action.Disposition) error {
	url := urlnorm.SearchURL(e.opts.SearchURL, text)

	if disposition == action.DispositionCurrentTab {
		tab, err := e.ActiveTab(ctx)
		if err != nil {
			return err
		}
		if tab != nil {
			return e.NavigateTab(ctx, tab.ID, url)
		}
	}
	return e.CreateTab(ctx, url)
}

func (e *Environment) visited(ctx context.Context, url string) error {
	if err := e.profile.AddVisit(ctx, url, ""); err != nil {
		return err
	}
	if e.opts.Open == nil {
		return nil
	}
	if err := e.opts.Open(url); err != nil {
		e.logger.Warn("open external", "url", url, "error", err)
		return err
	}
	return nil
}
