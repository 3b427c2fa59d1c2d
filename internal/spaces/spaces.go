// Package spaces maintains the map from normalized URL to the collection
// ("space") that bookmarks it.
//
// Collections are the folders directly under a designated root bookmark
// folder. The map is built lazily, once, by walking the root's subtree, then
// persisted so the next process can skip the walk. Reads after the first
// build are lock-free.
package spaces

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/storage"
	"github.com/nikbrunner/spotlight/internal/urlnorm"
)

// DefaultRootTitle is the folder title searched for when no root ID is configured.
const DefaultRootTitle = "Spaces"

// State is the lifecycle state of the cache.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "empty"
	}
}

// Colors are assigned to collections by position.
var Colors = []string{"blue", "red", "yellow", "green", "pink", "purple", "cyan", "orange", "grey"}

// Source is the bookmark store the cache is built from.
type Source interface {
	BookmarkTree(ctx context.Context) ([]model.BookmarkNode, error)
	BookmarkSubtree(ctx context.Context, id string) (*model.BookmarkNode, error)
	FindBookmarkFolders(ctx context.Context, title string) ([]model.BookmarkNode, error)
}

// Options configures a Cache.
type Options struct {
	RootTitle string
	RootID    string
	Logger    *slog.Logger
	Now       func() time.Time
}

type index struct {
	rootID      string
	urls        map[string]model.SpaceMeta
	bookmarkIDs map[string]struct{}
}

func newIndex(rootID string, urls map[string]model.SpaceMeta) *index {
	idx := &index{rootID: rootID, urls: urls, bookmarkIDs: make(map[string]struct{}, len(urls))}
	for _, meta := range urls {
		if meta.BookmarkID != "" {
			idx.bookmarkIDs[meta.BookmarkID] = struct{}{}
		}
	}
	return idx
}

// Cache is the collection enrichment cache.
type Cache struct {
	src    Source
	store  storage.SnapshotStore
	opts   Options
	logger *slog.Logger

	group    singleflight.Group
	index    atomic.Pointer[index]
	building atomic.Int32 // builds in flight, superseded ones included

	// mu serializes invalidation against publishing a finished build.
	mu         sync.Mutex
	generation uint64
	importing  bool
	pending    bool
}

// New creates an empty cache. store may be nil to disable persistence.
func New(src Source, store storage.SnapshotStore, opts Options) *Cache {
	if opts.RootTitle == "" {
		opts.RootTitle = DefaultRootTitle
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{src: src, store: store, opts: opts, logger: opts.Logger}
}

// State reports the current lifecycle state.
func (c *Cache) State() State {
	if c.index.Load() != nil {
		return StateReady
	}
	if c.building.Load() > 0 {
		return StateBuilding
	}
	return StateEmpty
}

// Warm builds the cache if it is not ready yet.
func (c *Cache) Warm(ctx context.Context) {
	c.ensure(ctx)
}

// Len returns the number of URLs known to belong to a collection.
func (c *Cache) Len(ctx context.Context) int {
	return len(c.ensure(ctx).urls)
}

// SpaceForURL returns the collection bookmarking url, building the cache on
// first use.
func (c *Cache) SpaceForURL(ctx context.Context, url string) (model.SpaceMeta, bool) {
	if url == "" {
		return model.SpaceMeta{}, false
	}
	meta, ok := c.ensure(ctx).urls[urlnorm.Normalize(url)]
	return meta, ok
}

// Contains reports whether a bookmark lives under the collection root, by
// ID or by URL.
func (c *Cache) Contains(ctx context.Context, bookmarkID, url string) bool {
	idx := c.ensure(ctx)
	if _, ok := idx.bookmarkIDs[bookmarkID]; ok && bookmarkID != "" {
		return true
	}
	if url == "" {
		return false
	}
	_, ok := idx.urls[urlnorm.Normalize(url)]
	return ok
}

func (c *Cache) ensure(ctx context.Context) *index {
	if idx := c.index.Load(); idx != nil {
		return idx
	}

	// the build is shared, so one caller's cancellation must not fail the rest
	buildCtx := context.WithoutCancel(ctx)
	v, _, _ := c.group.Do("build", func() (any, error) {
		if idx := c.index.Load(); idx != nil {
			return idx, nil
		}
		c.building.Add(1)
		defer c.building.Add(-1)
		return c.build(buildCtx), nil
	})
	return v.(*index)
}

func (c *Cache) build(ctx context.Context) *index {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	idx, fromSnapshot := c.loadSnapshot(ctx)
	if idx == nil {
		idx = c.traverse(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// invalidated while building; hand the result to current waiters only
		c.logger.Debug("spaces build discarded", "generation", gen)
		return idx
	}
	if !fromSnapshot && c.store != nil && idx.rootID != "" {
		snap := &model.SpaceSnapshot{
			FolderID:  idx.rootID,
			URLMap:    idx.urls,
			Timestamp: c.opts.Now().UnixMilli(),
		}
		if err := c.store.SaveSnapshot(ctx, snap); err != nil {
			c.logger.Warn("save spaces snapshot", "error", err)
		}
	}
	c.index.Store(idx)
	c.logger.Debug("spaces ready", "urls", len(idx.urls), "root", idx.rootID, "snapshot", fromSnapshot)
	return idx
}

func (c *Cache) loadSnapshot(ctx context.Context) (*index, bool) {
	if c.store == nil {
		return nil, false
	}
	snap, err := c.store.LoadSnapshot(ctx)
	if err != nil {
		c.logger.Warn("load spaces snapshot", "error", err)
		return nil, false
	}
	if snap == nil || snap.FolderID == "" {
		return nil, false
	}
	if c.opts.RootID != "" && snap.FolderID != c.opts.RootID {
		return nil, false
	}
	return newIndex(snap.FolderID, snap.URLMap), true
}

func (c *Cache) traverse(ctx context.Context) *index {
	empty := newIndex("", map[string]model.SpaceMeta{})

	rootID, err := c.locateRoot(ctx)
	if err != nil {
		c.logger.Warn("locate spaces root", "error", err)
		return empty
	}
	if rootID == "" {
		c.logger.Debug("no spaces root found", "title", c.opts.RootTitle)
		return empty
	}

	root, err := c.src.BookmarkSubtree(ctx, rootID)
	if err != nil {
		c.logger.Warn("load spaces subtree", "root", rootID, "error", err)
		return empty
	}
	return newIndex(root.ID, collect(root))
}

// collect maps every URL under each first-level folder of root to that folder.
func collect(root *model.BookmarkNode) map[string]model.SpaceMeta {
	urls := make(map[string]model.SpaceMeta)
	i := 0
	for _, space := range root.Children {
		if !space.IsFolder() {
			continue
		}
		color := Colors[i%len(Colors)]
		i++

		space.Walk(func(n model.BookmarkNode) bool {
			if n.IsFolder() {
				return true
			}
			key := urlnorm.Normalize(n.URL)
			if _, seen := urls[key]; seen {
				return true
			}
			urls[key] = model.SpaceMeta{
				SpaceName:     space.Title,
				SpaceID:       space.ID,
				SpaceColor:    color,
				BookmarkID:    n.ID,
				BookmarkTitle: n.Title,
			}
			return true
		})
	}
	return urls
}

// locateRoot tries, in order: the configured ID, an exact title search, a
// case-insensitive walk of the top-level containers, and any top-level
// folder whose name mentions the root title. An empty ID means none matched.
func (c *Cache) locateRoot(ctx context.Context) (string, error) {
	if c.opts.RootID != "" {
		if _, err := c.src.BookmarkSubtree(ctx, c.opts.RootID); err == nil {
			return c.opts.RootID, nil
		}
	}

	folders, err := c.src.FindBookmarkFolders(ctx, c.opts.RootTitle)
	if err == nil && len(folders) > 0 {
		return folders[0].ID, nil
	}

	tree, err := c.src.BookmarkTree(ctx)
	if err != nil {
		return "", err
	}

	want := strings.ToLower(c.opts.RootTitle)
	var candidates []model.BookmarkNode
	for _, top := range tree {
		candidates = append(candidates, top)
		candidates = append(candidates, top.Children...)
	}

	for _, n := range candidates {
		if n.IsFolder() && strings.EqualFold(strings.TrimSpace(n.Title), c.opts.RootTitle) {
			return n.ID, nil
		}
	}

	hint := strings.TrimSuffix(want, "s")
	for _, n := range candidates {
		if n.IsFolder() && strings.Contains(strings.ToLower(n.Title), hint) {
			return n.ID, nil
		}
	}
	return "", nil
}

// Invalidate drops the map and the persisted snapshot. During a bulk import
// the drop is deferred until EndImport.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	if c.importing {
		c.pending = true
		c.mu.Unlock()
		c.logger.Debug("spaces invalidation deferred")
		return nil
	}
	defer c.mu.Unlock()
	return c.invalidateLocked(ctx)
}

func (c *Cache) invalidateLocked(ctx context.Context) error {
	c.generation++
	c.index.Store(nil)
	c.group.Forget("build")
	c.logger.Debug("spaces invalidated", "generation", c.generation)

	if c.store == nil {
		return nil
	}
	return c.store.DeleteSnapshot(ctx)
}

// BeginImport defers invalidations until EndImport.
func (c *Cache) BeginImport() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.importing = true
}

// EndImport ends a bulk import and applies an invalidation deferred during it.
func (c *Cache) EndImport(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.importing = false
	if !c.pending {
		return nil
	}
	c.pending = false
	return c.invalidateLocked(ctx)
}

// Importing reports whether a bulk import is in progress and whether an
// invalidation is waiting for it to end.
func (c *Cache) Importing() (importing, pending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.importing, c.pending
}
