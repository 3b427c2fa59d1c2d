// Package engine aggregates candidates from every data source into one
// ranked, deduplicated result list.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nikbrunner/spotlight/internal/directory"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/provider"
	"github.com/nikbrunner/spotlight/internal/search"
)

// DefaultMaxResults is the length a result list is truncated to.
const DefaultMaxResults = 8

// Enricher looks up collection membership for URLs and bookmarks.
type Enricher interface {
	SpaceForURL(ctx context.Context, url string) (model.SpaceMeta, bool)
	Contains(ctx context.Context, bookmarkID, url string) bool
}

// Options configures an Engine.
type Options struct {
	MaxResults       int
	MinQueryLength   int
	FuzzyThreshold   float64
	DirectoryResults int
	Logger           *slog.Logger
}

// Engine is the aggregation and ranking pipeline.
type Engine struct {
	provider provider.Provider
	spaces   Enricher
	opts     Options
	logger   *slog.Logger
}

// New creates an Engine. spaces may be nil to disable enrichment.
func New(p provider.Provider, spaces Enricher, opts Options) *Engine {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = search.DefaultMinQueryLength
	}
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = search.DefaultThreshold
	}
	if opts.DirectoryResults <= 0 {
		opts.DirectoryResults = directory.DefaultMaxResults
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{provider: p, spaces: spaces, opts: opts, logger: opts.Logger}
}

// Suggestions returns the ranked results for query. It never fails: a
// broken pipeline degrades to the instant suggestion for query.
func (e *Engine) Suggestions(ctx context.Context, query string, mode model.Mode) []model.Result {
	return e.run(ctx, query, mode, true)
}

// LocalSuggestions is Suggestions without the remote autocomplete source.
func (e *Engine) LocalSuggestions(ctx context.Context, query string, mode model.Mode) []model.Result {
	return e.run(ctx, query, mode, false)
}

// Merge ranks the union of an earlier local pass and late remote results.
func (e *Engine) Merge(ctx context.Context, query string, local, remote []model.Result) []model.Result {
	all := make([]model.Result, 0, len(local)+len(remote))
	all = append(all, local...)
	all = append(all, remote...)
	return e.rank(ctx, strings.TrimSpace(query), all)
}

func (e *Engine) run(ctx context.Context, query string, mode model.Mode, remote bool) (results []model.Result) {
	q := strings.TrimSpace(query)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("suggestion pipeline failed", "query", q, "mode", mode, "panic", r)
			results = fallback(q)
		}
	}()

	if q == "" {
		return e.browse(ctx)
	}

	candidates, err := e.gather(ctx, q, remote)
	if err != nil {
		e.logger.Error("suggestion pipeline failed", "query", q, "mode", mode, "error", err)
		return fallback(q)
	}

	results = e.rank(ctx, q, candidates)
	e.logger.Debug("suggestions",
		"query", q, "mode", mode, "candidates", len(candidates),
		"results", len(results), "took", time.Since(start))
	return results
}

// browse is the empty-query view: open tabs, pinned ones after the rest,
// in provider order.
func (e *Engine) browse(ctx context.Context) []model.Result {
	var candidates []model.Result
	if tabs, err := e.provider.OpenTabs(ctx, ""); err != nil {
		e.logger.Warn("source failed", "source", provider.SourceOpenTabs, "error", err)
	} else {
		candidates = append(candidates, tabResults(tabs, nil)...)
	}
	if pinned, err := e.provider.PinnedTabs(ctx, ""); err != nil {
		e.logger.Warn("source failed", "source", provider.SourcePinnedTabs, "error", err)
	} else {
		candidates = append(candidates, pinnedResults(pinned, nil)...)
	}

	results := Dedupe(candidates)
	e.enrich(ctx, results)
	for i := range results {
		results[i].Score = BaseScore(results[i])
	}
	return sortAndTruncate(results, e.opts.MaxResults)
}

func (e *Engine) rank(ctx context.Context, query string, candidates []model.Result) []model.Result {
	results := Dedupe(candidates)
	e.enrich(ctx, results)
	for i := range results {
		results[i].Score = Score(results[i], query)
	}
	return sortAndTruncate(results, e.opts.MaxResults)
}

func (e *Engine) enrich(ctx context.Context, results []model.Result) {
	if e.spaces == nil {
		return
	}
	for i := range results {
		r := &results[i]
		if r.URL == "" || r.Type == model.TypePinnedTab || r.Metadata.Space != nil {
			continue
		}
		if meta, ok := e.spaces.SpaceForURL(ctx, r.URL); ok {
			r.Metadata.Space = &meta
		}
	}
}

type source struct {
	name  string
	fetch func(ctx context.Context) ([]model.Result, error)
}

// gather fetches every source concurrently. A failing source contributes
// nothing; only a dead context fails the whole pass.
func (e *Engine) gather(ctx context.Context, query string, remote bool) ([]model.Result, error) {
	sources := e.sources(query, remote)
	parts := make([][]model.Result, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			parts[i] = e.fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []model.Result
	for _, p := range parts {
		all = append(all, p...)
	}
	all = append(all, e.directoryResults(query)...)
	return all, nil
}

func (e *Engine) fetch(ctx context.Context, src source) (results []model.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("source failed", "source", src.name, "error", fmt.Errorf("panic: %v", r))
			results = nil
		}
	}()

	results, err := src.fetch(ctx)
	if err != nil {
		e.logger.Warn("source failed", "source", src.name, "error", err)
		return nil
	}
	return results
}

func (e *Engine) sources(query string, remote bool) []source {
	p := e.provider
	sources := []source{
		{provider.SourceOpenTabs, func(ctx context.Context) ([]model.Result, error) {
			tabs, err := p.OpenTabs(ctx, query)
			if err != nil {
				return nil, err
			}
			return tabResults(tabs, matchScores(e, tabs, query, tabKeys)), nil
		}},
		{provider.SourcePinnedTabs, func(ctx context.Context) ([]model.Result, error) {
			tabs, err := p.PinnedTabs(ctx, query)
			if err != nil {
				return nil, err
			}
			return pinnedResults(tabs, matchScores(e, tabs, query, pinnedKeys)), nil
		}},
		{provider.SourceBookmarks, func(ctx context.Context) ([]model.Result, error) {
			bookmarks, err := p.Bookmarks(ctx, query)
			if err != nil {
				return nil, err
			}
			return e.bookmarkResults(ctx, bookmarks), nil
		}},
		{provider.SourceHistory, func(ctx context.Context) ([]model.Result, error) {
			history, err := p.History(ctx, query)
			if err != nil {
				return nil, err
			}
			return historyResults(history, matchScores(e, history, query, historyKeys)), nil
		}},
		{provider.SourceTopSites, func(ctx context.Context) ([]model.Result, error) {
			sites, err := p.TopSites(ctx)
			if err != nil {
				return nil, err
			}
			return siteResults(sites, query, matchScores(e, sites, query, siteKeys)), nil
		}},
	}
	if remote {
		sources = append(sources, source{provider.SourceAutocomplete, func(ctx context.Context) ([]model.Result, error) {
			return p.Autocomplete(ctx, query)
		}})
	}
	return sources
}

func (e *Engine) directoryResults(query string) []model.Result {
	matches := directory.FuzzyDomainMatch(query, e.opts.DirectoryResults)
	results := make([]model.Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, model.NewResult(model.NewResultParams{
			Type:  model.TypeTopSite,
			Title: m.Name,
			URL:   "https://" + m.Domain,
			Metadata: model.Metadata{
				FuzzyMatch: true,
				MatchType:  m.MatchType,
			},
		}))
	}
	return results
}

func (e *Engine) bookmarkResults(ctx context.Context, bookmarks []model.BookmarkRecord) []model.Result {
	results := make([]model.Result, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.URL == "" {
			continue
		}
		// collection members surface through enrichment instead
		if e.spaces != nil && e.spaces.Contains(ctx, b.ID, b.URL) {
			continue
		}
		results = append(results, model.NewResult(model.NewResultParams{
			Type:     model.TypeBookmark,
			Title:    b.Title,
			URL:      b.URL,
			Metadata: model.Metadata{BookmarkID: b.ID},
		}))
	}
	return results
}

// matchScores fuzzy-matches items and returns their match scores by index.
func matchScores[T any](e *Engine, items []T, query string, keys []search.Key[T]) map[int]float64 {
	matches := search.Search(items, query, search.Options[T]{
		Keys:           keys,
		MinQueryLength: e.opts.MinQueryLength,
		Threshold:      e.opts.FuzzyThreshold,
	})
	scores := make(map[int]float64, len(matches))
	for _, m := range matches {
		scores[m.Index] = m.MatchScore
	}
	return scores
}
