// Package action turns a chosen result into exactly one browser side effect.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikbrunner/spotlight/internal/model"
)

var (
	ErrMissingField    = errors.New("missing required field")
	ErrUnsupportedType = errors.New("unsupported result type")
	ErrUnsupportedMode = errors.New("unsupported navigation mode")
	ErrNoActiveTab     = errors.New("no active tab")
)

// Disposition says where a web search opens.
type Disposition string

const (
	DispositionCurrentTab Disposition = "CURRENT_TAB"
	DispositionNewTab     Disposition = "NEW_TAB"
)

// Environment is the set of browser operations actions are built from.
// Every method may fail; failures are returned to the caller unchanged.
type Environment interface {
	ActivateTab(ctx context.Context, tabID int) error
	FocusWindow(ctx context.Context, windowID int) error
	NavigateTab(ctx context.Context, tabID int, url string) error
	CreateTab(ctx context.Context, url string) error
	ActiveTab(ctx context.Context) (*model.TabRecord, error)
	Search(ctx context.Context, text string, disposition Disposition) error
}

// DispatchError describes a failed action.
type DispatchError struct {
	Type  model.ResultType
	Mode  model.Mode
	Field string // set for ErrMissingField
	Err   error
}

func (e *DispatchError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s in %s mode: %v: %s", e.Type, e.Mode, e.Err, e.Field)
	}
	return fmt.Sprintf("%s in %s mode: %v", e.Type, e.Mode, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Dispatcher executes results against an Environment.
type Dispatcher struct {
	env    Environment
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. logger may be nil.
func NewDispatcher(env Environment, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{env: env, logger: logger}
}

// Dispatch performs the action for r in mode. currentTabID, when non-nil,
// is used instead of asking the environment for the active tab.
func (d *Dispatcher) Dispatch(ctx context.Context, r model.Result, mode model.Mode, currentTabID *int) error {
	fail := func(field string, err error) error {
		return &DispatchError{Type: r.Type, Mode: mode, Field: field, Err: err}
	}

	if !mode.Valid() {
		return fail("", ErrUnsupportedMode)
	}

	var err error
	switch r.Type {
	case model.TypeOpenTab, model.TypePinnedTab:
		err = d.switchTab(ctx, r, mode, currentTabID, fail)
	case model.TypeURLSuggestion, model.TypeBookmark, model.TypeHistory,
		model.TypeTopSite, model.TypeAutocompleteSuggestion:
		err = d.openURL(ctx, r, mode, currentTabID, fail)
	case model.TypeSearchQuery:
		err = d.search(ctx, r, mode, fail)
	default:
		err = fail("", ErrUnsupportedType)
	}

	if err != nil {
		d.logger.Warn("action failed", "type", r.Type, "mode", mode, "url", r.URL, "error", err)
		return err
	}
	d.logger.Debug("action done", "type", r.Type, "mode", mode, "url", r.URL)
	return nil
}

type failFunc func(field string, err error) error

func (d *Dispatcher) switchTab(ctx context.Context, r model.Result, mode model.Mode, currentTabID *int, fail failFunc) error {
	if mode == model.ModeCurrentTab {
		return d.openURL(ctx, r, mode, currentTabID, fail)
	}

	tab := r.Metadata.Tab
	if tab == nil {
		return fail("tabId", ErrMissingField)
	}
	if err := d.env.ActivateTab(ctx, tab.TabID); err != nil {
		return fail("", fmt.Errorf("activate tab %d: %w", tab.TabID, err))
	}
	if tab.WindowID != 0 {
		if err := d.env.FocusWindow(ctx, tab.WindowID); err != nil {
			return fail("", fmt.Errorf("focus window %d: %w", tab.WindowID, err))
		}
	}
	return nil
}

func (d *Dispatcher) openURL(ctx context.Context, r model.Result, mode model.Mode, currentTabID *int, fail failFunc) error {
	if r.URL == "" {
		return fail("url", ErrMissingField)
	}

	if mode == model.ModeNewTab {
		if err := d.env.CreateTab(ctx, r.URL); err != nil {
			return fail("", fmt.Errorf("create tab: %w", err))
		}
		return nil
	}

	tabID, err := d.currentTab(ctx, currentTabID)
	if err != nil {
		return fail("", err)
	}
	if err := d.env.NavigateTab(ctx, tabID, r.URL); err != nil {
		return fail("", fmt.Errorf("navigate tab %d: %w", tabID, err))
	}
	return nil
}

func (d *Dispatcher) currentTab(ctx context.Context, hint *int) (int, error) {
	if hint != nil {
		return *hint, nil
	}
	tab, err := d.env.ActiveTab(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoActiveTab, err)
	}
	if tab == nil {
		return 0, ErrNoActiveTab
	}
	return tab.ID, nil
}

func (d *Dispatcher) search(ctx context.Context, r model.Result, mode model.Mode, fail failFunc) error {
	if r.Metadata.Query == "" {
		return fail("query", ErrMissingField)
	}
	disposition := DispositionCurrentTab
	if mode == model.ModeNewTab {
		disposition = DispositionNewTab
	}
	if err := d.env.Search(ctx, r.Metadata.Query, disposition); err != nil {
		return fail("", fmt.Errorf("search: %w", err))
	}
	return nil
}
