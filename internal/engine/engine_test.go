package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/provider"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

type fakeProvider struct {
	tabs        []model.TabRecord
	pinned      []model.PinnedTabRecord
	bookmarks   []model.BookmarkRecord
	history     []model.HistoryRecord
	sites       []model.SiteRecord
	suggestions []model.Result

	errs   map[string]error
	panics map[string]bool

	autocompleteCalls atomic.Int32
	queries           atomic.Value
}

func (f *fakeProvider) check(source string) error {
	if f.panics[source] {
		panic(source + " exploded")
	}
	return f.errs[source]
}

func (f *fakeProvider) OpenTabs(_ context.Context, query string) ([]model.TabRecord, error) {
	f.queries.Store(query)
	return f.tabs, f.check(provider.SourceOpenTabs)
}

func (f *fakeProvider) RecentTabs(_ context.Context, limit int) ([]model.TabRecord, error) {
	return f.tabs, f.check(provider.SourceRecentTabs)
}

func (f *fakeProvider) Bookmarks(context.Context, string) ([]model.BookmarkRecord, error) {
	return f.bookmarks, f.check(provider.SourceBookmarks)
}

func (f *fakeProvider) History(context.Context, string) ([]model.HistoryRecord, error) {
	return f.history, f.check(provider.SourceHistory)
}

func (f *fakeProvider) TopSites(context.Context) ([]model.SiteRecord, error) {
	return f.sites, f.check(provider.SourceTopSites)
}

func (f *fakeProvider) Autocomplete(context.Context, string) ([]model.Result, error) {
	f.autocompleteCalls.Add(1)
	return f.suggestions, f.check(provider.SourceAutocomplete)
}

func (f *fakeProvider) PinnedTabs(context.Context, string) ([]model.PinnedTabRecord, error) {
	return f.pinned, f.check(provider.SourcePinnedTabs)
}

type fakeSpaces struct {
	byURL   map[string]model.SpaceMeta
	members map[string]bool
	panic   bool
}

func (f *fakeSpaces) SpaceForURL(_ context.Context, url string) (model.SpaceMeta, bool) {
	if f.panic {
		panic("spaces exploded")
	}
	meta, ok := f.byURL[urlnorm.Normalize(url)]
	return meta, ok
}

func (f *fakeSpaces) Contains(_ context.Context, bookmarkID, url string) bool {
	return f.members[bookmarkID]
}

func assertSorted(t *testing.T, results []model.Result) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		assert.Assert(t, results[i-1].Score >= results[i].Score,
			"results[%d].Score=%v < results[%d].Score=%v", i-1, results[i-1].Score, i, results[i].Score)
	}
}

func TestSuggestions_OpenTabBeatsBookmark(t *testing.T) {
	p := &fakeProvider{
		tabs:      []model.TabRecord{{ID: 7, WindowID: 2, Title: "Quokka facts", URL: "https://quokka.example/"}},
		bookmarks: []model.BookmarkRecord{{ID: "b1", Title: "Quokka", URL: "https://www.QUOKKA.example"}},
	}
	e := New(p, nil, Options{})

	results := e.Suggestions(context.Background(), "quokka", model.ModeCurrentTab)

	assert.Equal(t, len(results), 1)
	assert.Equal(t, results[0].Type, model.TypeOpenTab)
	assert.Equal(t, results[0].Metadata.Tab.TabID, 7)
	assert.Equal(t, results[0].Metadata.Tab.WindowID, 2)
	assert.Equal(t, results[0].Score, float64(ScoreOpenTab+MatchScoreWeight))
}

func TestSuggestions_PinnedTabBetweenTabAndBookmark(t *testing.T) {
	p := &fakeProvider{
		pinned:    []model.PinnedTabRecord{{TabRecord: model.TabRecord{ID: 3, Title: "Quokka", URL: "https://quokka.example"}}},
		bookmarks: []model.BookmarkRecord{{ID: "b1", Title: "Quokka", URL: "https://quokka.example"}},
	}
	results := New(p, nil, Options{}).Suggestions(context.Background(), "quokka", model.ModeNewTab)

	assert.Equal(t, len(results), 1)
	assert.Equal(t, results[0].Type, model.TypePinnedTab)
}

func TestSuggestions_SortedAndTruncated(t *testing.T) {
	p := &fakeProvider{
		tabs: []model.TabRecord{{ID: 1, Title: "Zebra crossing", URL: "https://crossing.example"}},
		suggestions: []model.Result{model.NewResult(model.NewResultParams{
			Type:     model.TypeAutocompleteSuggestion,
			Title:    "zebra facts",
			URL:      "https://search.example/?q=zebra+facts",
			Metadata: model.Metadata{Query: "zebra facts"},
		})},
	}
	for i := 0; i < 20; i++ {
		p.history = append(p.history, model.HistoryRecord{
			URL:   fmt.Sprintf("https://zebra.example/%d", i),
			Title: fmt.Sprintf("Zebra page %d", i),
		})
	}

	results := New(p, nil, Options{}).Suggestions(context.Background(), "zebra", model.ModeCurrentTab)

	assert.Equal(t, len(results), DefaultMaxResults)
	assertSorted(t, results)
	assert.Equal(t, results[0].Type, model.TypeOpenTab)
}

func TestSuggestions_MaxResultsOption(t *testing.T) {
	p := &fakeProvider{}
	for i := 0; i < 10; i++ {
		p.tabs = append(p.tabs, model.TabRecord{ID: i, Title: "Tab", URL: fmt.Sprintf("https://t.example/%d", i)})
	}
	results := New(p, nil, Options{MaxResults: 3}).Suggestions(context.Background(), "", model.ModeCurrentTab)
	assert.Equal(t, len(results), 3)
}

func TestSuggestions_PartialFailure(t *testing.T) {
	p := &fakeProvider{
		tabs:      []model.TabRecord{{ID: 1, Title: "Zebra tab", URL: "https://tab.example"}},
		bookmarks: []model.BookmarkRecord{{ID: "b", Title: "Zebra bookmark", URL: "https://bookmark.example"}},
		history: []model.HistoryRecord{
			{URL: "https://history.example", Title: "Zebra history"},
			{URL: "https://www.history.example/", Title: "Zebra history again"},
		},
		pinned: []model.PinnedTabRecord{{TabRecord: model.TabRecord{ID: 2, Title: "Zebra pinned", URL: "https://pinned.example"}}},
		sites:  []model.SiteRecord{{URL: "https://zebra.example", Title: "Zebra site"}, {URL: "https://other.example", Title: "Other"}},
		errs:   map[string]error{provider.SourceOpenTabs: errors.New("tabs unavailable")},
		panics: map[string]bool{provider.SourceBookmarks: true},
	}

	results := New(p, nil, Options{}).Suggestions(context.Background(), "zebra", model.ModeCurrentTab)

	assert.Equal(t, len(results), 3)
	assertSorted(t, results)
	assert.Equal(t, results[0].Type, model.TypePinnedTab)
	assert.Equal(t, results[1].Type, model.TypeHistory)
	assert.Equal(t, results[2].Type, model.TypeTopSite)
	assert.Equal(t, results[2].URL, "https://zebra.example")
}

func TestSuggestions_EmptyQueryShowsOpenTabs(t *testing.T) {
	p := &fakeProvider{
		tabs: []model.TabRecord{
			{ID: 1, Title: "First", URL: "https://first.example"},
			{ID: 2, Title: "Second", URL: "https://second.example"},
			{ID: 3, Title: "First again", URL: "https://www.first.example/"},
		},
		bookmarks: []model.BookmarkRecord{{ID: "b", Title: "Bookmark", URL: "https://bookmark.example"}},
		history:   []model.HistoryRecord{{URL: "https://history.example", Title: "History"}},
	}
	spaces := &fakeSpaces{byURL: map[string]model.SpaceMeta{
		"second.example": {SpaceName: "Work", SpaceID: "s1"},
	}}

	results := New(p, spaces, Options{}).Suggestions(context.Background(), "   ", model.ModeCurrentTab)

	assert.Equal(t, len(results), 2)
	assert.Equal(t, results[0].Title, "First")
	assert.Equal(t, results[1].Title, "Second")
	for _, r := range results {
		assert.Equal(t, r.Type, model.TypeOpenTab)
		assert.Equal(t, r.Score, float64(ScoreOpenTab))
	}
	assert.Assert(t, results[0].Metadata.Space == nil)
	assert.Equal(t, results[1].Metadata.Space.SpaceName, "Work")
	assert.Equal(t, p.queries.Load(), "")
	assert.Equal(t, p.autocompleteCalls.Load(), int32(0))
}

func TestSuggestions_EmptyQueryIncludesPinnedTabs(t *testing.T) {
	own := &model.SpaceMeta{SpaceName: "Mail", SpaceID: "m1"}
	p := &fakeProvider{
		tabs:   []model.TabRecord{{ID: 1, Title: "Docs", URL: "https://docs.example"}},
		pinned: []model.PinnedTabRecord{{TabRecord: model.TabRecord{ID: 2, Title: "Inbox", URL: "https://mail.example", Pinned: true}, Space: own}},
		errs:   map[string]error{},
	}

	results := New(p, nil, Options{}).Suggestions(context.Background(), "", model.ModeCurrentTab)

	assert.Equal(t, len(results), 2)
	assert.Equal(t, results[0].Title, "Docs")
	assert.Equal(t, results[1].Type, model.TypePinnedTab)
	assert.Equal(t, results[1].Metadata.Space.SpaceName, "Mail")
	assert.Equal(t, results[1].Score, float64(ScorePinnedTab))

	// one broken source leaves the other
	p.errs[provider.SourceOpenTabs] = errors.New("tabs unavailable")
	results = New(p, nil, Options{}).Suggestions(context.Background(), "", model.ModeCurrentTab)
	assert.Equal(t, len(results), 1)
	assert.Equal(t, results[0].Title, "Inbox")
}

func TestSuggestions_Enrichment(t *testing.T) {
	own := &model.SpaceMeta{SpaceName: "Pinned", SpaceID: "p1"}
	p := &fakeProvider{
		history: []model.HistoryRecord{{URL: "https://docs.example/zebra", Title: "Zebra docs"}},
		pinned:  []model.PinnedTabRecord{{TabRecord: model.TabRecord{ID: 4, Title: "Zebra mail", URL: "https://mail.example"}, Space: own}},
	}
	spaces := &fakeSpaces{byURL: map[string]model.SpaceMeta{
		"docs.example/zebra": {SpaceName: "Research", SpaceID: "s2", BookmarkID: "bk"},
		"mail.example":       {SpaceName: "Wrong", SpaceID: "s3"},
	}}

	results := New(p, spaces, Options{}).Suggestions(context.Background(), "zebra", model.ModeCurrentTab)

	assert.Equal(t, len(results), 2)
	for _, r := range results {
		switch r.Type {
		case model.TypeHistory:
			assert.Equal(t, r.Metadata.Space.SpaceName, "Research")
			assert.Equal(t, r.Metadata.Space.BookmarkID, "bk")
		case model.TypePinnedTab:
			assert.Equal(t, r.Metadata.Space.SpaceName, "Pinned")
		default:
			t.Errorf("unexpected type %s", r.Type)
		}
	}
}

func TestSuggestions_ExcludesCollectionBookmarks(t *testing.T) {
	p := &fakeProvider{
		bookmarks: []model.BookmarkRecord{
			{ID: "in", Title: "Zebra inside", URL: "https://inside.example"},
			{ID: "out", Title: "Zebra outside", URL: "https://outside.example"},
		},
	}
	spaces := &fakeSpaces{members: map[string]bool{"in": true}}

	results := New(p, spaces, Options{}).Suggestions(context.Background(), "zebra", model.ModeCurrentTab)

	assert.Equal(t, len(results), 1)
	assert.Equal(t, results[0].Metadata.BookmarkID, "out")
}

func TestSuggestions_CuratedDomainCompletion(t *testing.T) {
	results := New(&fakeProvider{}, nil, Options{}).Suggestions(context.Background(), "squaresp", model.ModeCurrentTab)

	assert.Equal(t, len(results), 1)
	r := results[0]
	assert.Equal(t, r.Type, model.TypeTopSite)
	assert.Equal(t, r.URL, "https://squarespace.com")
	assert.Equal(t, r.Title, "Squarespace")
	assert.Equal(t, r.Metadata.MatchType, model.MatchStart)
	assert.Assert(t, r.Metadata.FuzzyMatch)
	assert.Equal(t, r.Score, float64(ScoreCuratedStart+bonusTitlePrefix))
}

func TestSuggestions_CancelledContextFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := New(&fakeProvider{}, nil, Options{}).Suggestions(ctx, "github.com", model.ModeCurrentTab)

	assert.Equal(t, len(results), 1)
	assert.Equal(t, results[0].Type, model.TypeURLSuggestion)
	assert.Equal(t, results[0].URL, "https://github.com")
}

func TestSuggestions_PanicFallsBack(t *testing.T) {
	p := &fakeProvider{history: []model.HistoryRecord{{URL: "https://pizza.example", Title: "Pizza"}}}
	e := New(p, &fakeSpaces{panic: true}, Options{})

	results := e.Suggestions(context.Background(), "best pizza", model.ModeCurrentTab)

	assert.Equal(t, len(results), 1)
	assert.Equal(t, results[0].Type, model.TypeSearchQuery)
	assert.Equal(t, results[0].Metadata.Query, "best pizza")
}

func TestLocalSuggestionsAndMerge(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{
		history: []model.HistoryRecord{{URL: "https://zebra.example", Title: "Zebra"}},
		suggestions: []model.Result{
			model.NewResult(model.NewResultParams{
				Type:     model.TypeAutocompleteSuggestion,
				Title:    "zebra stripes",
				URL:      "https://search.example/?q=zebra+stripes",
				Metadata: model.Metadata{Query: "zebra stripes"},
			}),
			model.NewResult(model.NewResultParams{
				Type:  model.TypeAutocompleteSuggestion,
				Title: "zebra.example",
				URL:   "https://zebra.example/",
			}),
		},
	}
	e := New(p, nil, Options{})

	local := e.LocalSuggestions(ctx, "zebra", model.ModeCurrentTab)
	assert.Equal(t, p.autocompleteCalls.Load(), int32(0))
	assert.Equal(t, len(local), 1)

	remote, err := p.Autocomplete(ctx, "zebra")
	assert.NilError(t, err)

	merged := e.Merge(ctx, "zebra", local, remote)
	assert.Equal(t, len(merged), 2)
	assert.Equal(t, merged[0].Type, model.TypeHistory)
	assert.Equal(t, merged[1].Type, model.TypeAutocompleteSuggestion)
	assertSorted(t, merged)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		result model.Result
		want   float64
	}{
		{"exact title", model.Result{Type: model.TypeBookmark, Title: "Quokka"}, 100},
		{"title prefix", model.Result{Type: model.TypeBookmark, Title: "Quokka facts"}, 95},
		{"title contains", model.Result{Type: model.TypeBookmark, Title: "All about quokka"}, 90},
		{"url contains", model.Result{Type: model.TypeBookmark, Title: "Animals", URL: "https://x.example/quokka"}, 85},
		{"no match", model.Result{Type: model.TypeBookmark, Title: "Animals"}, 80},
		{
			"match score replaces substring bonus",
			model.Result{Type: model.TypeBookmark, Title: "Quokka", Metadata: model.Metadata{MatchScore: model.Float(0.5)}},
			92.5,
		},
		{"search query", model.Result{Type: model.TypeSearchQuery, Title: "x"}, 100},
		{"url suggestion", model.Result{Type: model.TypeURLSuggestion, Title: "x"}, 95},
		{"history", model.Result{Type: model.TypeHistory, Title: "x"}, 70},
		{"top site", model.Result{Type: model.TypeTopSite, Title: "x"}, 60},
		{"curated contains", model.Result{Type: model.TypeTopSite, Title: "x", Metadata: model.Metadata{MatchType: model.MatchContains}}, 62},
		{"curated name", model.Result{Type: model.TypeTopSite, Title: "x", Metadata: model.Metadata{MatchType: model.MatchName}}, 60},
		{"autocomplete", model.Result{Type: model.TypeAutocompleteSuggestion, Title: "x"}, 30},
		{"unknown type floors at zero", model.Result{Type: "bogus", Title: "x"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Score(tt.result, "quokka"), tt.want)
		})
	}
}

func TestDedupe(t *testing.T) {
	in := []model.Result{
		model.NewResult(model.NewResultParams{Type: model.TypeHistory, Title: "A", URL: "https://a.example"}),
		model.NewResult(model.NewResultParams{Type: model.TypeSearchQuery, Title: "same"}),
		model.NewResult(model.NewResultParams{Type: model.TypeOpenTab, Title: "A tab", URL: "http://www.a.example/#top"}),
		model.NewResult(model.NewResultParams{Type: model.TypeSearchQuery, Title: "same"}),
		model.NewResult(model.NewResultParams{Type: model.TypeHistory, Title: "Q1", URL: "https://a.example?q=1"}),
	}

	out := Dedupe(in)

	assert.Equal(t, len(out), 3)
	assert.Equal(t, out[0].Type, model.TypeOpenTab)
	assert.Equal(t, out[1].Type, model.TypeSearchQuery)
	assert.Equal(t, out[2].Title, "Q1")
}

func TestDedupe_OwnScoreCounts(t *testing.T) {
	in := []model.Result{
		model.NewResult(model.NewResultParams{Type: model.TypeOpenTab, Title: "Tab", URL: "https://a.example"}),
		model.NewResult(model.NewResultParams{Type: model.TypeBookmark, Title: "Boosted", URL: "https://a.example", Score: 50}),
	}
	out := Dedupe(in)
	assert.Equal(t, len(out), 1)
	assert.Equal(t, out[0].Title, "Boosted")
}
