// Package provider defines the data sources the aggregation engine reads.
package provider

import (
	"context"

	"github.com/nikbrunner/spotlight/internal/model"
)

// Provider supplies candidate records to the engine. Every method may fail
// independently; an empty query means no filter.
type Provider interface {
	OpenTabs(ctx context.Context, query string) ([]model.TabRecord, error)
	RecentTabs(ctx context.Context, limit int) ([]model.TabRecord, error)
	Bookmarks(ctx context.Context, query string) ([]model.BookmarkRecord, error)
	History(ctx context.Context, query string) ([]model.HistoryRecord, error)
	TopSites(ctx context.Context) ([]model.SiteRecord, error)
	Autocomplete(ctx context.Context, query string) ([]model.Result, error)
	PinnedTabs(ctx context.Context, query string) ([]model.PinnedTabRecord, error)
}

// Source names used in logs and on the wire.
const (
	SourceOpenTabs     = "getOpenTabsData"
	SourceRecentTabs   = "getRecentTabsData"
	SourceBookmarks    = "getBookmarksData"
	SourceHistory      = "getHistoryData"
	SourceTopSites     = "getTopSitesData"
	SourceAutocomplete = "getAutocompleteData"
	SourcePinnedTabs   = "getPinnedTabsData"
)
