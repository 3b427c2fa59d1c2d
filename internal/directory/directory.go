// Package directory holds the curated popular-site table and completes
// partial domains against it.
package directory

import (
	"sort"
	"strings"

	"github.com/nikbrunner/spotlight/internal/model"
)

// Scores for each match tier. Start matches land in (startFloor, startScore];
// every start match outranks every contains match, which outranks name matches.
const (
	startScore    = 100
	startFloor    = 50
	containsScore = 40
	nameScore     = 20

	// DefaultMaxResults is used when FuzzyDomainMatch gets maxResults <= 0.
	DefaultMaxResults = 5
)

// DomainMatch is one curated domain matched by a partial query.
type DomainMatch struct {
	Domain    string
	Name      string
	Score     int
	MatchType model.MatchType
}

var byDomain = func() map[string]string {
	m := make(map[string]string, len(sites))
	for _, s := range sites {
		m[s.Domain] = s.Name
	}
	return m
}()

// Lookup returns the display name for an exact domain.
func Lookup(domain string) (string, bool) {
	name, ok := byDomain[domain]
	return name, ok
}

// Sites returns a copy of the curated table in table order.
func Sites() []Site {
	out := make([]Site, len(sites))
	copy(out, sites)
	return out
}

// FuzzyDomainMatch completes partial against the curated table.
// A first-label prefix match ranks highest and shorter domains rank higher
// within it; then first-label substring; then display-name substring.
// Equal scores keep table order.
func FuzzyDomainMatch(partial string, maxResults int) []DomainMatch {
	p := strings.ToLower(strings.TrimSpace(partial))
	if p == "" {
		return nil
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var matches []DomainMatch
	for _, s := range sites {
		label := firstLabel(s.Domain)
		if strings.Contains(p, ".") {
			// "github.c" should still complete github.com
			label = s.Domain
		}

		switch {
		case strings.HasPrefix(label, p):
			matches = append(matches, DomainMatch{
				Domain:    s.Domain,
				Name:      s.Name,
				Score:     startScore - min(len(s.Domain)-len(p), startScore-startFloor-1),
				MatchType: model.MatchStart,
			})
		case strings.Contains(label, p):
			matches = append(matches, DomainMatch{
				Domain:    s.Domain,
				Name:      s.Name,
				Score:     containsScore,
				MatchType: model.MatchContains,
			})
		case strings.Contains(strings.ToLower(s.Name), p):
			matches = append(matches, DomainMatch{
				Domain:    s.Domain,
				Name:      s.Name,
				Score:     nameScore,
				MatchType: model.MatchName,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

func firstLabel(domain string) string {
	if i := strings.IndexByte(domain, '.'); i >= 0 {
		return domain[:i]
	}
	return domain
}
