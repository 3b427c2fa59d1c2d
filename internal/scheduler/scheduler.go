// Package scheduler sits in front of the engine: it debounces keystrokes,
// caches results for a short time, and lets callers discard stale
// responses with a generation counter.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nikbrunner/spotlight/internal/model"
)

const (
	DefaultDebounce  = 150 * time.Millisecond
	DefaultTTL       = 30 * time.Second
	DefaultCacheSize = 128
)

var (
	// ErrSuperseded is returned to a debounced call that a newer call replaced
	// before the quiet period ended.
	ErrSuperseded = errors.New("superseded by a newer query")

	// ErrStale is returned when the generation moved on while a slow pass ran.
	ErrStale = errors.New("stale generation")
)

// Engine is the pipeline being scheduled.
type Engine interface {
	Suggestions(ctx context.Context, query string, mode model.Mode) []model.Result
	LocalSuggestions(ctx context.Context, query string, mode model.Mode) []model.Result
	Merge(ctx context.Context, query string, local, remote []model.Result) []model.Result
}

// Autocompleter is the slow remote source.
type Autocompleter interface {
	Autocomplete(ctx context.Context, query string) ([]model.Result, error)
}

// Options configures a Scheduler.
type Options struct {
	Debounce  time.Duration
	TTL       time.Duration
	CacheSize int
	Now       func() time.Time
	Logger    *slog.Logger
}

type entry struct {
	results []model.Result
	at      time.Time
}

type outcome struct {
	results []model.Result
	err     error
}

type call struct {
	ctx   context.Context
	query string
	mode  model.Mode
	done  chan outcome
}

// Scheduler debounces and caches engine calls.
type Scheduler struct {
	engine Engine
	remote Autocompleter
	cache  *lru.Cache[string, entry]
	gen    Generation
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	pending *call
	timer   *time.Timer
}

// New creates a Scheduler. remote may be nil when there is no slow pass.
func New(engine Engine, remote Autocompleter, opts Options) (*Scheduler, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cache, err := lru.New[string, entry](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Scheduler{engine: engine, remote: remote, cache: cache, opts: opts, logger: opts.Logger}, nil
}

// Key is the cache key for a query in a mode.
func Key(query string, mode model.Mode) string {
	return strings.TrimSpace(query) + ":" + string(mode)
}

// Generation returns the scheduler's request-generation counter.
func (s *Scheduler) Generation() *Generation {
	return &s.gen
}

// Suggestions returns cached results when fresh; otherwise it waits out the
// debounce window and runs the engine. A call replaced by a newer one
// before the window closes returns ErrSuperseded.
func (s *Scheduler) Suggestions(ctx context.Context, query string, mode model.Mode) ([]model.Result, error) {
	if results, ok := s.lookup(Key(query, mode)); ok {
		return results, nil
	}

	c := &call{ctx: ctx, query: query, mode: mode, done: make(chan outcome, 1)}

	s.mu.Lock()
	if s.pending != nil {
		s.timer.Stop()
		s.pending.done <- outcome{err: ErrSuperseded}
	}
	s.pending = c
	s.timer = time.AfterFunc(s.opts.Debounce, func() { s.fire(c) })
	s.mu.Unlock()

	select {
	case out := <-c.done:
		return out.results, out.err
	case <-ctx.Done():
		s.mu.Lock()
		if s.pending == c {
			s.timer.Stop()
			s.pending = nil
		}
		s.mu.Unlock()
		return nil, ctx.Err()
	}
}

func (s *Scheduler) fire(c *call) {
	s.mu.Lock()
	if s.pending != c {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()

	results := s.engine.Suggestions(c.ctx, c.query, c.mode)
	if err := c.ctx.Err(); err != nil {
		// the engine degraded to its fallback; keep it out of the cache
		c.done <- outcome{err: err}
		return
	}
	s.cache.Add(Key(c.query, c.mode), entry{results: results, at: s.opts.Now()})
	c.done <- outcome{results: slices.Clone(results)}
}

func (s *Scheduler) lookup(key string) ([]model.Result, bool) {
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	if s.opts.Now().Sub(e.at) >= s.opts.TTL {
		s.cache.Remove(key)
		return nil, false
	}
	s.logger.Debug("query cache hit", "key", key)
	return slices.Clone(e.results), true
}

// Immediate runs the local-only pass now, bypassing debounce and cache.
func (s *Scheduler) Immediate(ctx context.Context, query string, mode model.Mode) []model.Result {
	return s.engine.LocalSuggestions(ctx, query, mode)
}

// Autocomplete runs the slow remote pass for generation gen. It returns
// ErrStale if gen is no longer current before or after the remote call.
func (s *Scheduler) Autocomplete(ctx context.Context, gen uint64, query string) ([]model.Result, error) {
	if s.remote == nil {
		return nil, nil
	}
	if !s.gen.IsCurrent(gen) {
		return nil, ErrStale
	}
	results, err := s.remote.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}
	if !s.gen.IsCurrent(gen) {
		return nil, ErrStale
	}
	return results, nil
}

// Refine merges the slow remote pass into an earlier local pass.
func (s *Scheduler) Refine(ctx context.Context, gen uint64, query string, local []model.Result) ([]model.Result, error) {
	remote, err := s.Autocomplete(ctx, gen, query)
	if err != nil {
		return nil, err
	}
	merged := s.engine.Merge(ctx, query, local, remote)
	if !s.gen.IsCurrent(gen) {
		return nil, ErrStale
	}
	return merged, nil
}

// Purge drops every cached result.
func (s *Scheduler) Purge() {
	s.cache.Purge()
}

// Stop cancels a pending debounced call; its caller gets ErrSuperseded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.timer.Stop()
		s.pending.done <- outcome{err: ErrSuperseded}
		s.pending = nil
	}
}
