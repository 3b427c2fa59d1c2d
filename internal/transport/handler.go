package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/provider"
)

// Suggester produces ranked suggestions. It is satisfied by
// *scheduler.Scheduler.
type Suggester interface {
	Suggestions(ctx context.Context, query string, mode model.Mode) ([]model.Result, error)
	Immediate(ctx context.Context, query string, mode model.Mode) []model.Result
}

// Dispatcher executes a chosen result. It is satisfied by
// *action.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, r model.Result, mode model.Mode, currentTabID *int) error
}

// Handler serves requests against a suggester, a dispatcher and the
// provider the engine reads from.
type Handler struct {
	suggester  Suggester
	dispatcher Dispatcher
	provider   provider.Provider
	logger     *slog.Logger
}

// NewHandler creates a Handler. logger may be nil.
func NewHandler(s Suggester, d Dispatcher, p provider.Provider, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{suggester: s, dispatcher: d, provider: p, logger: logger}
}

// Handle answers one request. Failures are reported in the response, never
// returned.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("request failed", "action", req.Action, "panic", r)
			resp = failure(req.ID, fmt.Errorf("internal error: %v", r))
		}
	}()

	mode := req.Mode
	if mode == "" {
		mode = model.ModeCurrentTab
	}

	switch req.Action {
	case ActionGetSuggestions:
		results, err := h.suggester.Suggestions(ctx, req.Query, mode)
		if err != nil {
			if !errors.Is(err, ErrSuperseded) {
				h.logger.Warn("suggestions failed", "query", req.Query, "error", err)
			}
			return failure(req.ID, err)
		}
		resp = success(req.ID)
		resp.Results = results

	case ActionGetSuggestionsImmediate:
		resp = success(req.ID)
		resp.Results = h.suggester.Immediate(ctx, req.Query, mode)

	case ActionExecute:
		if req.Result == nil {
			return failure(req.ID, errors.New("missing result"))
		}
		if err := h.dispatcher.Dispatch(ctx, *req.Result, req.Mode, req.CurrentTabID); err != nil {
			h.logger.Warn("action failed", "type", req.Result.Type, "mode", req.Mode, "error", err)
			return failure(req.ID, err)
		}
		resp = success(req.ID)

	default:
		return h.source(ctx, req)
	}

	return resp
}

// source serves the raw provider actions.
func (h *Handler) source(ctx context.Context, req Request) Response {
	resp := success(req.ID)
	var err error

	switch req.Action {
	case ActionOpenTabs:
		resp.Tabs, err = h.provider.OpenTabs(ctx, req.Query)
	case ActionRecentTabs:
		resp.Tabs, err = h.provider.RecentTabs(ctx, req.Limit)
	case ActionBookmarks:
		resp.Bookmarks, err = h.provider.Bookmarks(ctx, req.Query)
	case ActionHistory:
		resp.History, err = h.provider.History(ctx, req.Query)
	case ActionTopSites:
		resp.Sites, err = h.provider.TopSites(ctx)
	case ActionAutocomplete:
		resp.Results, err = h.provider.Autocomplete(ctx, req.Query)
	case ActionPinnedTabs:
		resp.PinnedTabs, err = h.provider.PinnedTabs(ctx, req.Query)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	if err != nil {
		return failure(req.ID, err)
	}
	return resp
}
