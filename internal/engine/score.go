package engine

import (
	"sort"
	"strings"

	"github.com/nikbrunner/spotlight/internal/model"
)

// Base scores by result type.
const (
	ScoreInstant       = 1000
	ScoreSearchQuery   = 100
	ScoreURLSuggestion = 95
	ScoreOpenTab       = 90
	ScorePinnedTab     = 85
	ScoreBookmark      = 80
	ScoreHistory       = 70
	ScoreTopSite       = 60
	ScoreAutocomplete  = 30

	// curated directory sub-tiers
	ScoreCuratedStart    = 65
	ScoreCuratedContains = 62
	ScoreCuratedName     = 60

	// MatchScoreWeight converts a fuzzy match score in [0,1] to a bonus.
	MatchScoreWeight = 25

	bonusExactTitle  = 20
	bonusTitlePrefix = 15
	bonusTitleHas    = 10
	bonusURLHas      = 5
)

// BaseScore returns the fixed starting rank of r before relevance bonuses.
func BaseScore(r model.Result) float64 {
	switch r.Type {
	case model.TypeSearchQuery:
		return ScoreSearchQuery
	case model.TypeURLSuggestion:
		return ScoreURLSuggestion
	case model.TypeOpenTab:
		return ScoreOpenTab
	case model.TypePinnedTab:
		return ScorePinnedTab
	case model.TypeBookmark:
		return ScoreBookmark
	case model.TypeHistory:
		return ScoreHistory
	case model.TypeTopSite:
		switch r.Metadata.MatchType {
		case model.MatchStart:
			return ScoreCuratedStart
		case model.MatchContains:
			return ScoreCuratedContains
		case model.MatchName:
			return ScoreCuratedName
		}
		return ScoreTopSite
	case model.TypeAutocompleteSuggestion:
		return ScoreAutocomplete
	}
	return 0
}

// Score computes the final rank of r for query. A precomputed fuzzy match
// score replaces the substring bonuses; the two never combine.
func Score(r model.Result, query string) float64 {
	score := BaseScore(r)
	if r.Metadata.MatchScore != nil {
		score += *r.Metadata.MatchScore * MatchScoreWeight
	} else {
		score += substringBonus(r, query)
	}
	return max(score, 0)
}

func substringBonus(r model.Result, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	title := strings.ToLower(r.Title)

	switch {
	case title == q:
		return bonusExactTitle
	case strings.HasPrefix(title, q):
		return bonusTitlePrefix
	case strings.Contains(title, q):
		return bonusTitleHas
	case strings.Contains(strings.ToLower(r.URL), q):
		return bonusURLHas
	}
	return 0
}

// priority decides which of two colliding results survives deduplication.
func priority(r model.Result) float64 {
	return BaseScore(r) + r.Score
}

// Dedupe keeps one result per identity key, preferring higher priority.
// The survivor takes the position of the first occurrence.
func Dedupe(results []model.Result) []model.Result {
	seen := make(map[string]int, len(results))
	out := make([]model.Result, 0, len(results))

	for _, r := range results {
		key := r.IdentityKey()
		if i, ok := seen[key]; ok {
			if priority(r) > priority(out[i]) {
				out[i] = r
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out
}

// sortAndTruncate orders by score descending and keeps at most limit results.
func sortAndTruncate(results []model.Result, limit int) []model.Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
