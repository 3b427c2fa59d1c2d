package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikbrunner/spotlight/internal/model"
)

const bookmarkColumns = "id, parent_id, title, url, position, created_at"

func scanBookmark(row rowScanner) (model.BookmarkNode, error) {
	var n model.BookmarkNode
	var parentID, url sql.NullString
	var createdAt string

	if err := row.Scan(&n.ID, &parentID, &n.Title, &url, &n.Position, &createdAt); err != nil {
		return n, err
	}
	if parentID.Valid {
		n.ParentID = &parentID.String
	}
	n.URL = url.String
	n.CreatedAt = parseTime(createdAt)
	return n, nil
}

func (p *Profile) queryBookmarks(ctx context.Context, query string, args ...any) ([]model.BookmarkNode, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []model.BookmarkNode{}
	for rows.Next() {
		n, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// BookmarkTree returns the whole bookmark forest.
func (p *Profile) BookmarkTree(ctx context.Context) ([]model.BookmarkNode, error) {
	nodes, err := p.queryBookmarks(ctx,
		"SELECT "+bookmarkColumns+" FROM bookmarks ORDER BY parent_id, position, created_at")
	if err != nil {
		return nil, err
	}
	return model.BuildTree(nodes), nil
}

// BookmarkSubtree returns the node with the given id and all its descendants.
func (p *Profile) BookmarkSubtree(ctx context.Context, id string) (*model.BookmarkNode, error) {
	nodes, err := p.queryBookmarks(ctx, `
		WITH RECURSIVE sub(id) AS (
			SELECT id FROM bookmarks WHERE id = ?
			UNION ALL
			SELECT b.id FROM bookmarks b JOIN sub ON b.parent_id = sub.id
		)
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE id IN (SELECT id FROM sub)
		ORDER BY parent_id, position, created_at`, id)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
	}

	for _, root := range model.BuildTree(nodes) {
		if root.ID == id {
			return &root, nil
		}
	}
	return nil, fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
}

// FindBookmarkFolders returns folders whose title is exactly title.
func (p *Profile) FindBookmarkFolders(ctx context.Context, title string) ([]model.BookmarkNode, error) {
	return p.queryBookmarks(ctx,
		"SELECT "+bookmarkColumns+" FROM bookmarks WHERE url IS NULL AND title = ? ORDER BY created_at", title)
}

// SearchBookmarks returns bookmarks whose title or URL contains query,
// case-insensitively. An empty query returns every bookmark.
func (p *Profile) SearchBookmarks(ctx context.Context, query string) ([]model.BookmarkRecord, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	nodes, err := p.queryBookmarks(ctx, `
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE url IS NOT NULL
			AND (lower(title) LIKE ? ESCAPE '\' OR lower(url) LIKE ? ESCAPE '\')
		ORDER BY created_at DESC`, pattern, pattern)
	if err != nil {
		return nil, err
	}

	records := make([]model.BookmarkRecord, 0, len(nodes))
	for _, n := range nodes {
		var parent string
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		records = append(records, model.BookmarkRecord{ID: n.ID, ParentID: parent, Title: n.Title, URL: n.URL})
	}
	return records, nil
}

// HasBookmarkURL reports whether any bookmark points at url exactly.
func (p *Profile) HasBookmarkURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookmarks WHERE url = ?", url).Scan(&n)
	return n > 0, err
}

// AddBookmark inserts a bookmark or folder. Nodes without a parent are put
// under Other Bookmarks.
func (p *Profile) AddBookmark(ctx context.Context, node model.BookmarkNode) error {
	if err := p.insertBookmark(ctx, p.db, node); err != nil {
		return err
	}
	p.notifyBookmarksChanged()
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *Profile) insertBookmark(ctx context.Context, db execer, node model.BookmarkNode) error {
	parent := OtherBookmarksID
	if node.ParentID != nil {
		parent = *node.ParentID
	}
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	var url any
	if node.URL != "" {
		url = node.URL
	}

	var position int
	if err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM bookmarks WHERE parent_id = ?", parent).Scan(&position); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, parent_id, title, url, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		node.ID, parent, node.Title, url, position, formatTime(node.CreatedAt))
	return err
}

// ImportBookmarks merges imported nodes into the profile: folders are reused
// by name under the same parent, bookmarks whose URL already exists are
// skipped. Nodes without a parent land under Other Bookmarks. Listeners are
// notified once per inserted node, as a browser would.
func (p *Profile) ImportBookmarks(ctx context.Context, nodes []model.BookmarkNode) (added, skipped int, err error) {
	// imported folder ID -> ID used in the profile
	folderMap := make(map[string]string)

	resolveParent := func(parentID *string) *string {
		if parentID == nil {
			return nil
		}
		if mapped, ok := folderMap[*parentID]; ok {
			return &mapped
		}
		return parentID
	}

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return added, skipped, err
		}

		parent := resolveParent(n.ParentID)
		parentKey := OtherBookmarksID
		if parent != nil {
			parentKey = *parent
		}

		if n.IsFolder() {
			var existing string
			err := p.db.QueryRowContext(ctx,
				"SELECT id FROM bookmarks WHERE url IS NULL AND parent_id = ? AND title = ? LIMIT 1",
				parentKey, n.Title).Scan(&existing)
			if err == nil {
				folderMap[n.ID] = existing
				continue
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return added, skipped, err
			}
			folderMap[n.ID] = n.ID
		} else {
			exists, err := p.HasBookmarkURL(ctx, n.URL)
			if err != nil {
				return added, skipped, err
			}
			if exists {
				skipped++
				continue
			}
		}

		n.ParentID = &parentKey
		if err := p.insertBookmark(ctx, p.db, n); err != nil {
			return added, skipped, err
		}
		if !n.IsFolder() {
			added++
		}
		p.notifyBookmarksChanged()
	}

	return added, skipped, nil
}

// RemoveBookmark deletes a bookmark or a folder with everything under it.
func (p *Profile) RemoveBookmark(ctx context.Context, id string) error {
	if id == BookmarksBarID || id == OtherBookmarksID {
		return fmt.Errorf("bookmark %s: cannot remove a root folder", id)
	}
	res, err := p.db.ExecContext(ctx, "DELETE FROM bookmarks WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("bookmark %s: %w", id, ErrNotFound)
	}
	p.notifyBookmarksChanged()
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
