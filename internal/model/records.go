package model

import "time"

// TabRecord is an open browser tab as reported by a provider.
type TabRecord struct {
	ID           int       `json:"id"`
	WindowID     int       `json:"windowId"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	FavIconURL   string    `json:"favIconUrl,omitempty"`
	Active       bool      `json:"active"`
	Pinned       bool      `json:"pinned"`
	GroupName    string    `json:"groupName,omitempty"`
	GroupColor   string    `json:"groupColor,omitempty"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// PinnedTabRecord is a pinned tab that already knows its collection.
type PinnedTabRecord struct {
	TabRecord
	Space *SpaceMeta `json:"space,omitempty"`
}

// BookmarkRecord is a bookmark returned by a provider search.
type BookmarkRecord struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// HistoryRecord is one browsing-history entry.
type HistoryRecord struct {
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	VisitCount    int       `json:"visitCount"`
	LastVisitTime time.Time `json:"lastVisitTime"`
}

// SiteRecord is a top site.
type SiteRecord struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SpaceSnapshot is the persisted form of the collection enrichment map.
type SpaceSnapshot struct {
	FolderID  string               `json:"folderId"`
	URLMap    map[string]SpaceMeta `json:"urlMap"`
	Timestamp int64                `json:"timestamp"` // unix milliseconds
}
