// Package browser serves the local profile database as a data provider and
// an action environment.
package browser

import (
	"context"
	"strings"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/search"
	"github.com/nikbrunner/spotlight/internal/storage"
)

const (
	DefaultHistoryWindow = 500
	DefaultTopSites      = 10
)

// Autocompleter is the remote suggestion source.
type Autocompleter interface {
	Autocomplete(ctx context.Context, query string) ([]model.Result, error)
}

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	// HistoryWindow is how many recent history entries are matched against.
	HistoryWindow  int
	TopSites       int
	MinQueryLength int
	FuzzyThreshold float64
}

// Provider implements provider.Provider over a profile.
type Provider struct {
	profile *storage.Profile
	remote  Autocompleter
	opts    ProviderOptions
}

// NewProvider creates a Provider. remote may be nil.
func NewProvider(profile *storage.Profile, remote Autocompleter, opts ProviderOptions) *Provider {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = DefaultHistoryWindow
	}
	if opts.TopSites <= 0 {
		opts.TopSites = DefaultTopSites
	}
	return &Provider{profile: profile, remote: remote, opts: opts}
}

// OpenTabs returns unpinned tabs matching query. Pinned tabs are served by
// PinnedTabs.
func (p *Provider) OpenTabs(ctx context.Context, query string) ([]model.TabRecord, error) {
	tabs, err := p.profile.Tabs(ctx)
	if err != nil {
		return nil, err
	}
	unpinned := tabs[:0]
	for _, t := range tabs {
		if !t.Pinned {
			unpinned = append(unpinned, t)
		}
	}
	return filter(unpinned, query, p.opts, tabKeys), nil
}

// RecentTabs returns up to limit tabs, most recently accessed first.
func (p *Provider) RecentTabs(ctx context.Context, limit int) ([]model.TabRecord, error) {
	tabs, err := p.profile.Tabs(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(tabs) > limit {
		tabs = tabs[:limit]
	}
	return tabs, nil
}

// Bookmarks returns bookmarks whose title or URL contains query.
func (p *Provider) Bookmarks(ctx context.Context, query string) ([]model.BookmarkRecord, error) {
	return p.profile.SearchBookmarks(ctx, strings.TrimSpace(query))
}

// History matches query against the most recent history entries.
func (p *Provider) History(ctx context.Context, query string) ([]model.HistoryRecord, error) {
	history, err := p.profile.SearchHistory(ctx, "", p.opts.HistoryWindow)
	if err != nil {
		return nil, err
	}
	return filter(history, query, p.opts, historyKeys), nil
}

// TopSites returns the most visited sites.
func (p *Provider) TopSites(ctx context.Context) ([]model.SiteRecord, error) {
	return p.profile.TopSites(ctx, p.opts.TopSites)
}

// Autocomplete forwards to the remote source, if any.
func (p *Provider) Autocomplete(ctx context.Context, query string) ([]model.Result, error) {
	if p.remote == nil {
		return nil, nil
	}
	return p.remote.Autocomplete(ctx, query)
}

// PinnedTabs returns pinned tabs matching query, with their collection.
func (p *Provider) PinnedTabs(ctx context.Context, query string) ([]model.PinnedTabRecord, error) {
	tabs, err := p.profile.PinnedTabs(ctx)
	if err != nil {
		return nil, err
	}
	return filter(tabs, query, p.opts, pinnedKeys), nil
}

var (
	tabKeys = []search.Key[model.TabRecord]{
		{Name: "title", Weight: 2, Get: func(t model.TabRecord) string { return t.Title }},
		{Name: "url", Weight: 1, Get: func(t model.TabRecord) string { return t.URL }},
	}
	pinnedKeys = []search.Key[model.PinnedTabRecord]{
		{Name: "title", Weight: 2, Get: func(t model.PinnedTabRecord) string { return t.Title }},
		{Name: "url", Weight: 1, Get: func(t model.PinnedTabRecord) string { return t.URL }},
	}
	historyKeys = []search.Key[model.HistoryRecord]{
		{Name: "title", Weight: 2, Get: func(h model.HistoryRecord) string { return h.Title }},
		{Name: "url", Weight: 1, Get: func(h model.HistoryRecord) string { return h.URL }},
	}
)

// filter keeps items whose keys contain query or fuzzy-match it. An empty
// query keeps everything.
func filter[T any](items []T, query string, opts ProviderOptions, keys []search.Key[T]) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	keep := make([]bool, len(items))
	for _, m := range search.Search(items, q, search.Options[T]{
		Keys:           keys,
		MinQueryLength: opts.MinQueryLength,
		Threshold:      opts.FuzzyThreshold,
	}) {
		keep[m.Index] = true
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		if !keep[i] {
			for _, k := range keys {
				if strings.Contains(strings.ToLower(k.Get(item)), q) {
					keep[i] = true
					break
				}
			}
		}
		if keep[i] {
			out = append(out, item)
		}
	}
	return out
}
