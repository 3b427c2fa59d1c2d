package engine

import (
	"strings"

	"github.com/nikbrunner/spotlight/internal/directory"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

// InstantSuggestion derives a suggestion from the typed text alone: go to
// the URL when it looks like one, otherwise search for it. It does no I/O.
func InstantSuggestion(query string) (model.Result, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return model.Result{}, false
	}

	if urlnorm.LooksLikeURL(q) {
		url := urlnorm.EnsureScheme(q)
		title := url
		domain := strings.TrimPrefix(strings.ToLower(urlnorm.Domain(url)), "www.")
		if name, ok := directory.Lookup(domain); ok {
			title = name
		}
		return model.NewResult(model.NewResultParams{
			Type:  model.TypeURLSuggestion,
			Title: title,
			URL:   url,
			Score: ScoreInstant,
		}), true
	}

	return model.NewResult(model.NewResultParams{
		Type:     model.TypeSearchQuery,
		Title:    `Search for "` + q + `"`,
		Score:    ScoreInstant,
		Metadata: model.Metadata{Query: q},
	}), true
}

// fallback is what a failed pipeline degrades to.
func fallback(query string) []model.Result {
	r, ok := InstantSuggestion(query)
	if !ok {
		return []model.Result{}
	}
	return []model.Result{r}
}

// WithInstant puts the instant suggestion for query in front of results,
// dropping any result that points at the same destination.
func WithInstant(query string, results []model.Result) []model.Result {
	instant, ok := InstantSuggestion(query)
	if !ok {
		return results
	}
	out := make([]model.Result, 0, len(results)+1)
	out = append(out, instant)
	for _, r := range results {
		if r.IdentityKey() != instant.IdentityKey() {
			out = append(out, r)
		}
	}
	return out
}
