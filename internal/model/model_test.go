package model_test

import (
	"encoding/json"
	"testing"

	"github.com/nikbrunner/spotlight/internal/model"
)

// Helper functions for pointers
func stringPtr(s string) *string { return &s }

func TestNewResult_DerivesDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"https url", "https://www.github.com/nikbrunner", "www.github.com"},
		{"with port", "http://localhost:8080/app", "localhost"},
		{"empty url", "", ""},
		{"unparsable", "::not a url", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.NewResult(model.NewResultParams{Type: model.TypeHistory, URL: tt.url})
			if r.Domain != tt.want {
				t.Errorf("Domain = %q, want %q", r.Domain, tt.want)
			}
		})
	}
}

func TestResult_IdentityKey(t *testing.T) {
	tab := model.NewResult(model.NewResultParams{Type: model.TypeOpenTab, Title: "GH", URL: "https://www.GitHub.com/"})
	bookmark := model.NewResult(model.NewResultParams{Type: model.TypeBookmark, Title: "GitHub", URL: "github.com"})
	if tab.IdentityKey() != bookmark.IdentityKey() {
		t.Errorf("expected same identity, got %q and %q", tab.IdentityKey(), bookmark.IdentityKey())
	}
	if !tab.SameDestination(bookmark) {
		t.Error("expected SameDestination for equal normalized URLs")
	}

	search := model.NewResult(model.NewResultParams{Type: model.TypeSearchQuery, Title: `Search for "go"`})
	if search.IdentityKey() != `search:Search for "go"` {
		t.Errorf("unexpected search identity %q", search.IdentityKey())
	}

	other := model.NewResult(model.NewResultParams{Type: model.TypeSearchQuery, Title: `Search for "go"`})
	if !search.SameDestination(other) {
		t.Error("search queries with equal titles should be the same destination")
	}
	if search.SameDestination(tab) {
		t.Error("search query should not match a tab")
	}
}

func TestResult_JSONKeepsTypedMetadata(t *testing.T) {
	r := model.NewResult(model.NewResultParams{
		Type:  model.TypePinnedTab,
		Title: "Docs",
		URL:   "https://go.dev/doc",
		Metadata: model.Metadata{
			Tab:        &model.TabMeta{TabID: 4, WindowID: 1},
			Space:      &model.SpaceMeta{SpaceName: "Work", SpaceID: "s1"},
			MatchScore: model.Float(0.5),
		},
	})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var got model.Result
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if got.Metadata.Tab == nil || got.Metadata.Tab.TabID != 4 {
		t.Errorf("tab metadata lost: %+v", got.Metadata.Tab)
	}
	if got.Metadata.Space == nil || got.Metadata.Space.SpaceName != "Work" {
		t.Errorf("space metadata lost: %+v", got.Metadata.Space)
	}
	if got.Metadata.MatchScore == nil || *got.Metadata.MatchScore != 0.5 {
		t.Error("match score lost")
	}
}

func TestResultType_Valid(t *testing.T) {
	if !model.TypeTopSite.Valid() {
		t.Error("top-site should be valid")
	}
	if model.ResultType("instant").Valid() {
		t.Error("unknown type should be invalid")
	}
	if model.Mode("popup").Valid() {
		t.Error("unknown mode should be invalid")
	}
}

func TestBuildTree(t *testing.T) {
	nodes := []model.BookmarkNode{
		{ID: "root", Title: "Bookmarks Bar"},
		{ID: "f1", Title: "Development", ParentID: stringPtr("root")},
		{ID: "b1", Title: "Go", URL: "https://go.dev", ParentID: stringPtr("f1")},
		{ID: "b2", Title: "HN", URL: "https://news.ycombinator.com", ParentID: stringPtr("root")},
		{ID: "orphan", Title: "Orphan", URL: "https://example.com", ParentID: stringPtr("missing")},
	}

	forest := model.BuildTree(nodes)
	if len(forest) != 2 {
		t.Fatalf("expected 2 roots (root + orphan), got %d", len(forest))
	}

	root := forest[0]
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children under root, got %d", len(root.Children))
	}
	if root.Children[0].ID != "f1" || len(root.Children[0].Children) != 1 {
		t.Errorf("expected Development folder with one child, got %+v", root.Children[0])
	}

	found := root.Find("b1")
	if found == nil || found.Title != "Go" {
		t.Errorf("Find(b1) = %+v", found)
	}
	if root.Find("nope") != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestBookmarkNode_Walk(t *testing.T) {
	tree := model.BookmarkNode{
		ID: "root",
		Children: []model.BookmarkNode{
			{ID: "f1", Children: []model.BookmarkNode{{ID: "b1", URL: "https://a.com"}}},
			{ID: "f2", Children: []model.BookmarkNode{{ID: "b2", URL: "https://b.com"}}},
		},
	}

	var visited []string
	tree.Walk(func(n model.BookmarkNode) bool {
		visited = append(visited, n.ID)
		return n.ID != "f2"
	})

	want := []string{"root", "f1", "b1", "f2"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestNewBookmark(t *testing.T) {
	folder := model.NewBookmark(model.NewBookmarkParams{Title: "Work"})
	if !folder.IsFolder() {
		t.Error("bookmark without URL should be a folder")
	}
	if folder.ID == "" {
		t.Error("expected generated ID")
	}

	b := model.NewBookmark(model.NewBookmarkParams{Title: "Go", URL: "https://go.dev", ParentID: &folder.ID})
	if b.IsFolder() {
		t.Error("bookmark with URL should not be a folder")
	}
	if b.ParentID == nil || *b.ParentID != folder.ID {
		t.Error("expected parent to be set")
	}
	if b.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}
