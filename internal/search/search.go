package search

import (
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

const (
	// DefaultMinQueryLength is the shortest query that is matched at all.
	DefaultMinQueryLength = 2

	// DefaultThreshold is the weakest weighted match quality that is kept.
	DefaultThreshold = 0.4
)

// Key is a weighted text field of T.
type Key[T any] struct {
	Name   string
	Weight float64
	Get    func(T) string
}

// Options configures a Search call.
type Options[T any] struct {
	Keys           []Key[T]
	MinQueryLength int     // 0 = DefaultMinQueryLength
	Threshold      float64 // 0 = DefaultThreshold
}

// Match is an item that cleared the threshold.
// MatchScore is in [0,1]: 1 is a perfect match, 0 the weakest accepted one.
type Match[T any] struct {
	Item       T
	Index      int
	MatchScore float64
}

// fieldValues implements fuzzy.Source for one key across all items.
type fieldValues []string

func (f fieldValues) String(i int) string {
	return f[i]
}

func (f fieldValues) Len() int {
	return len(f)
}

// Search fuzzy-matches query against the weighted keys of items.
// Matching is case-insensitive and location-independent: a match deep
// inside a long URL counts the same as one at its start. Results keep the
// input order.
func Search[T any](items []T, query string, opts Options[T]) []Match[T] {
	query = strings.TrimSpace(query)
	minLen := opts.MinQueryLength
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}
	if utf8.RuneCountInString(query) < minLen || len(items) == 0 || len(opts.Keys) == 0 {
		return nil
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	maxWeight := 0.0
	for _, k := range opts.Keys {
		if k.Weight > maxWeight {
			maxWeight = k.Weight
		}
	}
	if maxWeight <= 0 {
		return nil
	}

	best := make([]float64, len(items))
	matched := make([]bool, len(items))

	for _, key := range opts.Keys {
		if key.Weight <= 0 || key.Get == nil {
			continue
		}

		values := make(fieldValues, len(items))
		for i := range items {
			values[i] = key.Get(items[i])
		}

		for _, m := range fuzzy.FindFromNoSort(query, values) {
			q := quality(m, values[m.Index], query) * key.Weight / maxWeight
			if !matched[m.Index] || q > best[m.Index] {
				best[m.Index] = q
				matched[m.Index] = true
			}
		}
	}

	var results []Match[T]
	for i, item := range items {
		if !matched[i] || best[i] < threshold {
			continue
		}
		results = append(results, Match[T]{
			Item:       item,
			Index:      i,
			MatchScore: rescale(best[i], threshold),
		})
	}
	return results
}

// quality maps a fuzzy match to [0,1]. A case-insensitive substring is a
// perfect match; otherwise quality drops with every break in the run of
// matched characters. Where the match sits in the string does not matter.
func quality(m fuzzy.Match, value, query string) float64 {
	if strings.Contains(strings.ToLower(value), strings.ToLower(query)) {
		return 1
	}

	n := len(m.MatchedIndexes)
	if n == 0 {
		return 0
	}

	runs := 1
	for k := 1; k < n; k++ {
		prev := m.MatchedIndexes[k-1]
		_, size := utf8.DecodeRuneInString(value[prev:])
		if m.MatchedIndexes[k] != prev+size {
			runs++
		}
	}
	return float64(n-runs+1) / float64(n)
}

func rescale(q, threshold float64) float64 {
	if threshold >= 1 {
		return 1
	}
	s := (q - threshold) / (1 - threshold)
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
