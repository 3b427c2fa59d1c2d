package engine

import (
	"strings"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/search"
)

// Titles weigh twice as much as URLs.
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
	siteKeys = []search.Key[model.SiteRecord]{
		{Name: "title", Weight: 2, Get: func(s model.SiteRecord) string { return s.Title }},
		{Name: "url", Weight: 1, Get: func(s model.SiteRecord) string { return s.URL }},
	}
)

func matchScore(scores map[int]float64, i int) *float64 {
	if s, ok := scores[i]; ok {
		return model.Float(s)
	}
	return nil
}

func tabMeta(t model.TabRecord) *model.TabMeta {
	return &model.TabMeta{
		TabID:      t.ID,
		WindowID:   t.WindowID,
		GroupName:  t.GroupName,
		GroupColor: t.GroupColor,
	}
}

func tabResults(tabs []model.TabRecord, scores map[int]float64) []model.Result {
	results := make([]model.Result, 0, len(tabs))
	for i, t := range tabs {
		results = append(results, model.NewResult(model.NewResultParams{
			Type:    model.TypeOpenTab,
			Title:   t.Title,
			URL:     t.URL,
			Favicon: t.FavIconURL,
			Metadata: model.Metadata{
				Tab:        tabMeta(t),
				MatchScore: matchScore(scores, i),
			},
		}))
	}
	return results
}

func pinnedResults(tabs []model.PinnedTabRecord, scores map[int]float64) []model.Result {
	results := make([]model.Result, 0, len(tabs))
	for i, t := range tabs {
		results = append(results, model.NewResult(model.NewResultParams{
			Type:    model.TypePinnedTab,
			Title:   t.Title,
			URL:     t.URL,
			Favicon: t.FavIconURL,
			Metadata: model.Metadata{
				Tab:        tabMeta(t.TabRecord),
				Space:      t.Space,
				MatchScore: matchScore(scores, i),
			},
		}))
	}
	return results
}

func historyResults(history []model.HistoryRecord, scores map[int]float64) []model.Result {
	results := make([]model.Result, 0, len(history))
	for i, h := range history {
		if h.URL == "" {
			continue
		}
		title := h.Title
		if title == "" {
			title = h.URL
		}
		results = append(results, model.NewResult(model.NewResultParams{
			Type:     model.TypeHistory,
			Title:    title,
			URL:      h.URL,
			Metadata: model.Metadata{MatchScore: matchScore(scores, i)},
		}))
	}
	return results
}

// siteResults keeps only the top sites that match query, since the source
// itself is unfiltered.
func siteResults(sites []model.SiteRecord, query string, scores map[int]float64) []model.Result {
	q := strings.ToLower(query)
	var results []model.Result
	for i, s := range sites {
		_, fuzzy := scores[i]
		if !fuzzy && !strings.Contains(strings.ToLower(s.Title), q) && !strings.Contains(strings.ToLower(s.URL), q) {
			continue
		}
		results = append(results, model.NewResult(model.NewResultParams{
			Type:     model.TypeTopSite,
			Title:    s.Title,
			URL:      s.URL,
			Metadata: model.Metadata{MatchScore: matchScore(scores, i)},
		}))
	}
	return results
}

// TabResult is the result that switches to t.
func TabResult(t model.TabRecord) model.Result {
	typ := model.TypeOpenTab
	if t.Pinned {
		typ = model.TypePinnedTab
	}
	return model.NewResult(model.NewResultParams{
		Type:     typ,
		Title:    t.Title,
		URL:      t.URL,
		Favicon:  t.FavIconURL,
		Metadata: model.Metadata{Tab: tabMeta(t)},
	})
}
