package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nikbrunner/spotlight/internal/model"
)

const tabColumns = `id, window_id, title, url, fav_icon_url, active, pinned,
	group_name, group_color, last_accessed, space_id, space_name, space_color`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTab(row rowScanner) (model.PinnedTabRecord, error) {
	var t model.PinnedTabRecord
	var active, pinned int
	var lastAccessed, spaceID, spaceName, spaceColor string

	if err := row.Scan(
		&t.ID, &t.WindowID, &t.Title, &t.URL, &t.FavIconURL, &active, &pinned,
		&t.GroupName, &t.GroupColor, &lastAccessed, &spaceID, &spaceName, &spaceColor,
	); err != nil {
		return t, err
	}

	t.Active = active == 1
	t.Pinned = pinned == 1
	t.LastAccessed = parseTime(lastAccessed)
	if spaceID != "" {
		t.Space = &model.SpaceMeta{SpaceID: spaceID, SpaceName: spaceName, SpaceColor: spaceColor}
	}
	return t, nil
}

func (p *Profile) queryTabs(ctx context.Context, where string, args ...any) ([]model.PinnedTabRecord, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT "+tabColumns+" FROM tabs "+where+" ORDER BY last_accessed DESC, id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tabs := []model.PinnedTabRecord{}
	for rows.Next() {
		t, err := scanTab(rows)
		if err != nil {
			return nil, err
		}
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

// Tabs returns all open tabs, most recently accessed first.
func (p *Profile) Tabs(ctx context.Context) ([]model.TabRecord, error) {
	rows, err := p.queryTabs(ctx, "")
	if err != nil {
		return nil, err
	}
	tabs := make([]model.TabRecord, len(rows))
	for i, r := range rows {
		tabs[i] = r.TabRecord
	}
	return tabs, nil
}

// PinnedTabs returns pinned tabs with the collection they are pinned to.
func (p *Profile) PinnedTabs(ctx context.Context) ([]model.PinnedTabRecord, error) {
	return p.queryTabs(ctx, "WHERE pinned = 1")
}

// Tab returns the tab with the given id.
func (p *Profile) Tab(ctx context.Context, id int) (*model.TabRecord, error) {
	row := p.db.QueryRowContext(ctx, "SELECT "+tabColumns+" FROM tabs WHERE id = ?", id)
	t, err := scanTab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t.TabRecord, nil
}

// ActiveTab returns the active tab of the focused window.
func (p *Profile) ActiveTab(ctx context.Context) (*model.TabRecord, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+tabColumns+` FROM tabs
		WHERE active = 1
		ORDER BY window_id = (SELECT id FROM windows WHERE focused = 1 LIMIT 1) DESC,
			last_accessed DESC
		LIMIT 1`)
	t, err := scanTab(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active tab: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t.TabRecord, nil
}

// CreateTab opens a new active tab in the focused window.
func (p *Profile) CreateTab(ctx context.Context, url, title string) (*model.TabRecord, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var windowID int
	err = tx.QueryRowContext(ctx, "SELECT id FROM windows WHERE focused = 1 LIMIT 1").Scan(&windowID)
	if errors.Is(err, sql.ErrNoRows) {
		windowID = 1
		if _, err := tx.ExecContext(ctx, "INSERT OR REPLACE INTO windows (id, focused) VALUES (1, 1)"); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE tabs SET active = 0 WHERE window_id = ?", windowID); err != nil {
		return nil, err
	}

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO tabs (window_id, title, url, active, last_accessed)
		VALUES (?, ?, ?, 1, ?)`, windowID, title, url, formatTime(now))
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.TabRecord{
		ID:           int(id),
		WindowID:     windowID,
		Title:        title,
		URL:          url,
		Active:       true,
		LastAccessed: now,
	}, nil
}

// ActivateTab makes the tab the active one in its window.
func (p *Profile) ActivateTab(ctx context.Context, id int) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var windowID int
	err = tx.QueryRowContext(ctx, "SELECT window_id FROM tabs WHERE id = ?", id).Scan(&windowID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "UPDATE tabs SET active = 0 WHERE window_id = ?", windowID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE tabs SET active = 1, last_accessed = ? WHERE id = ?", formatTime(time.Now()), id); err != nil {
		return err
	}

	return tx.Commit()
}

// FocusWindow marks the window as focused.
func (p *Profile) FocusWindow(ctx context.Context, windowID int) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM tabs WHERE window_id = ?", windowID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("window %d: %w", windowID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE windows SET focused = 0"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO windows (id, focused) VALUES (?, 1)", windowID); err != nil {
		return err
	}

	return tx.Commit()
}

// NavigateTab points an existing tab at url.
func (p *Profile) NavigateTab(ctx context.Context, id int, url, title string) error {
	res, err := p.db.ExecContext(ctx,
		"UPDATE tabs SET url = ?, title = ?, fav_icon_url = '', last_accessed = ? WHERE id = ?",
		url, title, formatTime(time.Now()), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	return nil
}

// CloseTab removes a tab.
func (p *Profile) CloseTab(ctx context.Context, id int) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM tabs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetTabPinned pins or unpins a tab. A non-nil space pins it into that
// collection.
func (p *Profile) SetTabPinned(ctx context.Context, id int, pinned bool, space *model.SpaceMeta) error {
	var spaceID, spaceName, spaceColor string
	if pinned && space != nil {
		spaceID, spaceName, spaceColor = space.SpaceID, space.SpaceName, space.SpaceColor
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE tabs SET pinned = ?, space_id = ?, space_name = ?, space_color = ?
		WHERE id = ?`, boolInt(pinned), spaceID, spaceName, spaceColor, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetTabGroup assigns a tab to a named, colored tab group.
func (p *Profile) SetTabGroup(ctx context.Context, id int, name, color string) error {
	res, err := p.db.ExecContext(ctx,
		"UPDATE tabs SET group_name = ?, group_color = ? WHERE id = ?", name, color, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("tab %d: %w", id, ErrNotFound)
	}
	return nil
}
