package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/spotlight/internal/model"
)

const (
	currentSchemaVersion = 3

	// timeLayout sorts lexically in chronological order.
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	snapshotKey = "spaces_snapshot"

	// bookmarksVersionKey counts writes to the bookmarks table, from any
	// process. Triggers keep it current.
	bookmarksVersionKey = "bookmarks_version"

	// Root folder IDs seeded into every new profile.
	BookmarksBarID   = "1"
	OtherBookmarksID = "2"
)

// Profile is a browser profile stored in a SQLite database: tabs, the
// bookmark tree, history and a small key/value table.
type Profile struct {
	db   *sql.DB
	path string

	mu        sync.Mutex
	listeners []func()

	seenVersion atomic.Int64
}

// OpenProfile opens (and migrates) the profile database at path.
func OpenProfile(path string) (*Profile, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer; WAL lets readers in other processes proceed
	db.SetMaxOpenConns(1)

	// Enable foreign keys and set pragmas for performance
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	p := &Profile{db: db, path: path}
	if err := p.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	version, err := p.BookmarksVersion(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	p.seenVersion.Store(version)

	return p, nil
}

// Path returns the database file path.
func (p *Profile) Path() string {
	return p.path
}

// Close closes the database connection.
func (p *Profile) Close() error {
	return p.db.Close()
}

// OnBookmarksChanged registers fn to be called after every bookmark mutation.
func (p *Profile) OnBookmarksChanged(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Profile) notifyBookmarksChanged() {
	p.mu.Lock()
	listeners := make([]func(), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// migrate runs database migrations.
func (p *Profile) migrate() error {
	// Check current schema version
	var version int
	err := p.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		// Table doesn't exist or is empty, start fresh
		version = 0
	}

	if version < 1 {
		if err := p.migrateV1(); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := p.migrateV2(); err != nil {
			return err
		}
	}

	if version < 3 {
		if err := p.migrateV3(); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the initial schema and the two bookmark roots.
func (p *Profile) migrateV1() error {
	now := formatTime(time.Now())
	schema := `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS windows (
			id INTEGER PRIMARY KEY NOT NULL,
			focused INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS tabs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			window_id INTEGER NOT NULL DEFAULT 1,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL,
			fav_icon_url TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 0,
			pinned INTEGER NOT NULL DEFAULT 0,
			group_name TEXT NOT NULL DEFAULT '',
			group_color TEXT NOT NULL DEFAULT '',
			last_accessed TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tabs_window_id ON tabs(window_id);

		CREATE TABLE IF NOT EXISTS bookmarks (
			id TEXT PRIMARY KEY NOT NULL,
			parent_id TEXT,
			title TEXT NOT NULL,
			url TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			FOREIGN KEY (parent_id) REFERENCES bookmarks(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_bookmarks_parent_id ON bookmarks(parent_id);
		CREATE INDEX IF NOT EXISTS idx_bookmarks_url ON bookmarks(url);

		CREATE TABLE IF NOT EXISTS history (
			url TEXT PRIMARY KEY NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			visit_count INTEGER NOT NULL DEFAULT 0,
			last_visit TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_history_visit_count ON history(visit_count);

		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY NOT NULL,
			value TEXT NOT NULL
		);

		INSERT OR IGNORE INTO windows (id, focused) VALUES (1, 1);
		INSERT OR IGNORE INTO bookmarks (id, parent_id, title, url, position, created_at)
			VALUES ('` + BookmarksBarID + `', NULL, 'Bookmarks Bar', NULL, 0, '` + now + `');
		INSERT OR IGNORE INTO bookmarks (id, parent_id, title, url, position, created_at)
			VALUES ('` + OtherBookmarksID + `', NULL, 'Other Bookmarks', NULL, 1, '` + now + `');

		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := p.db.Exec(schema)
	return err
}

// migrateV2 lets pinned tabs belong to a collection.
func (p *Profile) migrateV2() error {
	migration := `
		ALTER TABLE tabs ADD COLUMN space_id TEXT NOT NULL DEFAULT '';
		ALTER TABLE tabs ADD COLUMN space_name TEXT NOT NULL DEFAULT '';
		ALTER TABLE tabs ADD COLUMN space_color TEXT NOT NULL DEFAULT '';
		UPDATE schema_version SET version = 2;
	`
	_, err := p.db.Exec(migration)
	return err
}

// migrateV3 counts bookmark writes so other processes can tell them apart
// from tab and history traffic.
func (p *Profile) migrateV3() error {
	migration := `
		INSERT OR IGNORE INTO kv (key, value) VALUES ('` + bookmarksVersionKey + `', '0');

		CREATE TRIGGER IF NOT EXISTS bookmarks_version_insert AFTER INSERT ON bookmarks
		BEGIN
			UPDATE kv SET value = CAST(value AS INTEGER) + 1 WHERE key = '` + bookmarksVersionKey + `';
		END;
		CREATE TRIGGER IF NOT EXISTS bookmarks_version_update AFTER UPDATE ON bookmarks
		BEGIN
			UPDATE kv SET value = CAST(value AS INTEGER) + 1 WHERE key = '` + bookmarksVersionKey + `';
		END;
		CREATE TRIGGER IF NOT EXISTS bookmarks_version_delete AFTER DELETE ON bookmarks
		BEGIN
			UPDATE kv SET value = CAST(value AS INTEGER) + 1 WHERE key = '` + bookmarksVersionKey + `';
		END;

		UPDATE schema_version SET version = 3;
	`
	_, err := p.db.Exec(migration)
	return err
}

// BookmarksVersion returns the bookmark write counter.
func (p *Profile) BookmarksVersion(ctx context.Context) (int64, error) {
	var version int64
	err := p.db.QueryRowContext(ctx,
		"SELECT CAST(value AS INTEGER) FROM kv WHERE key = ?", bookmarksVersionKey).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

// BookmarksChanged reports whether bookmarks were written, by this or any
// other process, since the previous call or since the profile was opened.
func (p *Profile) BookmarksChanged(ctx context.Context) (bool, error) {
	version, err := p.BookmarksVersion(ctx)
	if err != nil {
		return false, err
	}
	return p.seenVersion.Swap(version) != version, nil
}

// LoadSnapshot implements SnapshotStore using the kv table.
func (p *Profile) LoadSnapshot(ctx context.Context) (*model.SpaceSnapshot, error) {
	var value string
	err := p.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", snapshotKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.SpaceSnapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		return nil, err
	}
	if snap.URLMap == nil {
		snap.URLMap = map[string]model.SpaceMeta{}
	}
	return &snap, nil
}

// SaveSnapshot implements SnapshotStore.
func (p *Profile) SaveSnapshot(ctx context.Context, snap *model.SpaceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", snapshotKey, string(data))
	return err
}

// DeleteSnapshot implements SnapshotStore.
func (p *Profile) DeleteSnapshot(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", snapshotKey)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by older builds used RFC3339
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// DefaultProfilePath returns the default SQLite database path: ~/.config/spotlight/profile.db
func DefaultProfilePath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.db"), nil
}
