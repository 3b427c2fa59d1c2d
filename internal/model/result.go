package model

import "github.com/nikbrunner/spotlight/internal/urlnorm"

// ResultType identifies where a Result came from and how it is acted on.
type ResultType string

const (
	TypeURLSuggestion          ResultType = "url-suggestion"
	TypeSearchQuery            ResultType = "search-query"
	TypeAutocompleteSuggestion ResultType = "autocomplete-suggestion"
	TypeOpenTab                ResultType = "open-tab"
	TypePinnedTab              ResultType = "pinned-tab"
	TypeBookmark               ResultType = "bookmark"
	TypeHistory                ResultType = "history"
	TypeTopSite                ResultType = "top-site"
)

// Valid reports whether t is one of the known result types.
func (t ResultType) Valid() bool {
	switch t {
	case TypeURLSuggestion, TypeSearchQuery, TypeAutocompleteSuggestion,
		TypeOpenTab, TypePinnedTab, TypeBookmark, TypeHistory, TypeTopSite:
		return true
	}
	return false
}

// Mode is the navigation mode a palette was opened in.
type Mode string

const (
	ModeCurrentTab Mode = "current-tab"
	ModeNewTab     Mode = "new-tab"
)

// Valid reports whether m is a known navigation mode.
func (m Mode) Valid() bool {
	return m == ModeCurrentTab || m == ModeNewTab
}

// MatchType describes how a curated domain matched a partial query.
type MatchType string

const (
	MatchStart    MatchType = "start"
	MatchContains MatchType = "contains"
	MatchName     MatchType = "name"
)

// TabMeta identifies a browser tab.
type TabMeta struct {
	TabID      int    `json:"tabId"`
	WindowID   int    `json:"windowId,omitempty"`
	GroupName  string `json:"groupName,omitempty"`
	GroupColor string `json:"groupColor,omitempty"`
}

// SpaceMeta is collection membership attached during enrichment.
type SpaceMeta struct {
	SpaceName     string `json:"spaceName"`
	SpaceID       string `json:"spaceId"`
	SpaceColor    string `json:"spaceColor,omitempty"`
	BookmarkID    string `json:"bookmarkId,omitempty"`
	BookmarkTitle string `json:"bookmarkTitle,omitempty"`
}

// Metadata carries the type-specific identifiers of a Result.
// Only the fields relevant to the Result's type are set.
type Metadata struct {
	Tab        *TabMeta   `json:"tab,omitempty"`
	Space      *SpaceMeta `json:"space,omitempty"`
	BookmarkID string     `json:"bookmarkId,omitempty"`
	Query      string     `json:"query,omitempty"`
	FuzzyMatch bool       `json:"fuzzyMatch,omitempty"`
	MatchType  MatchType  `json:"matchType,omitempty"`
	MatchScore *float64   `json:"matchScore,omitempty"`
}

// Result is one candidate destination flowing through the pipeline.
type Result struct {
	Type     ResultType `json:"type"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	Domain   string     `json:"domain"`
	Favicon  string     `json:"favicon,omitempty"`
	Score    float64    `json:"score"`
	Metadata Metadata   `json:"metadata"`
}

// NewResultParams holds parameters for creating a new Result.
type NewResultParams struct {
	Type     ResultType
	Title    string
	URL      string
	Favicon  string
	Score    float64
	Metadata Metadata
}

// NewResult creates a Result with its Domain derived from URL.
func NewResult(params NewResultParams) Result {
	return Result{
		Type:     params.Type,
		Title:    params.Title,
		URL:      params.URL,
		Domain:   urlnorm.Domain(params.URL),
		Favicon:  params.Favicon,
		Score:    params.Score,
		Metadata: params.Metadata,
	}
}

// IdentityKey returns the string used to decide whether two Results point
// at the same destination.
func (r Result) IdentityKey() string {
	if r.URL != "" {
		return urlnorm.Normalize(r.URL)
	}
	if r.Type == TypeSearchQuery {
		return "search:" + r.Title
	}
	return r.Title
}

// SameDestination reports whether r and other refer to the same destination.
func (r Result) SameDestination(other Result) bool {
	if r.Type == TypeSearchQuery && other.Type == TypeSearchQuery {
		return r.Title == other.Title
	}
	if r.URL == "" || other.URL == "" {
		return false
	}
	return urlnorm.Normalize(r.URL) == urlnorm.Normalize(other.URL)
}

// Float returns a pointer to f, for MatchScore.
func Float(f float64) *float64 {
	return &f
}
