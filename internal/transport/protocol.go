// Package transport carries palette requests to the suggestion engine and
// back as JSON messages.
package transport

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/provider"
	"github.com/nikbrunner/spotlight/internal/scheduler"
)

// Message actions.
const (
	ActionGetSuggestions          = "getSuggestions"
	ActionGetSuggestionsImmediate = "getSuggestionsImmediate"
	ActionExecute                 = "executeAction"

	ActionOpenTabs     = provider.SourceOpenTabs
	ActionRecentTabs   = provider.SourceRecentTabs
	ActionBookmarks    = provider.SourceBookmarks
	ActionHistory      = provider.SourceHistory
	ActionTopSites     = provider.SourceTopSites
	ActionAutocomplete = provider.SourceAutocomplete
	ActionPinnedTabs   = provider.SourcePinnedTabs
)

var (
	ErrUnknownAction = errors.New("unknown action")
	// ErrSuperseded is reported when a newer suggestions request replaced
	// this one while it was debounced.
	ErrSuperseded = scheduler.ErrSuperseded
)

// Request is one message sent to the handler.
type Request struct {
	ID           string        `json:"id"`
	Action       string        `json:"action"`
	Query        string        `json:"query,omitempty"`
	Mode         model.Mode    `json:"mode,omitempty"`
	Limit        int           `json:"limit,omitempty"`
	Result       *model.Result `json:"result,omitempty"`
	CurrentTabID *int          `json:"currentTabId,omitempty"`
}

// NewRequest creates a Request with a fresh ID.
func NewRequest(action, query string, mode model.Mode) Request {
	return Request{
		ID:     uuid.NewString(),
		Action: action,
		Query:  query,
		Mode:   mode,
	}
}

// Response answers a Request. Only the payload field matching the
// request's action is set.
type Response struct {
	ID         string                  `json:"id"`
	Success    bool                    `json:"success"`
	Error      string                  `json:"error,omitempty"`
	Superseded bool                    `json:"superseded,omitempty"`
	Results    []model.Result          `json:"results,omitempty"`
	Tabs       []model.TabRecord       `json:"tabs,omitempty"`
	PinnedTabs []model.PinnedTabRecord `json:"pinnedTabs,omitempty"`
	Bookmarks  []model.BookmarkRecord  `json:"bookmarks,omitempty"`
	History    []model.HistoryRecord   `json:"history,omitempty"`
	Sites      []model.SiteRecord      `json:"sites,omitempty"`
}

// Err converts an unsuccessful response back into an error.
func (r Response) Err() error {
	switch {
	case r.Success:
		return nil
	case r.Superseded:
		return ErrSuperseded
	case r.Error == "":
		return errors.New("request failed")
	default:
		return fmt.Errorf("%s", r.Error)
	}
}

func success(id string) Response {
	return Response{ID: id, Success: true}
}

func failure(id string, err error) Response {
	return Response{
		ID:         id,
		Error:      err.Error(),
		Superseded: errors.Is(err, ErrSuperseded),
	}
}
