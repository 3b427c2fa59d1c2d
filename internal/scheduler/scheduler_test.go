package scheduler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/spotlight/internal/engine"
	"github.com/nikbrunner/spotlight/internal/model"
)

type fakeEngine struct {
	mu         sync.Mutex
	calls      int
	localCalls int
	lastQuery  string
	lastMode   model.Mode
}

func (f *fakeEngine) Suggestions(_ context.Context, query string, mode model.Mode) []model.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = query
	f.lastMode = mode
	return []model.Result{{Type: model.TypeHistory, Title: query, URL: "https://" + query + ".example"}}
}

func (f *fakeEngine) LocalSuggestions(_ context.Context, query string, _ model.Mode) []model.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.localCalls++
	return []model.Result{{Type: model.TypeHistory, Title: "local " + query}}
}

func (f *fakeEngine) Merge(_ context.Context, _ string, local, remote []model.Result) []model.Result {
	return append(append([]model.Result{}, local...), remote...)
}

func (f *fakeEngine) stats() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.lastQuery
}

type fakeRemote struct {
	results []model.Result
	err     error
	during  func()
	calls   int
}

func (f *fakeRemote) Autocomplete(context.Context, string) ([]model.Result, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	return f.results, f.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newScheduler(t *testing.T, engine Engine, remote Autocompleter, opts Options) *Scheduler {
	t.Helper()
	s, err := New(engine, remote, opts)
	assert.NilError(t, err)
	return s
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("  github ", model.ModeNewTab), "github:new-tab")
	assert.Equal(t, Key("", model.ModeCurrentTab), ":current-tab")
}

func TestSuggestions_CacheTTL(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	clk := &clock{now: time.Unix(1000, 0)}
	s := newScheduler(t, engine, nil, Options{Debounce: time.Millisecond, Now: clk.Now})

	first, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	assert.Equal(t, len(first), 1)

	clk.Advance(29 * time.Second)
	second, err := s.Suggestions(ctx, " golang ", model.ModeCurrentTab)
	assert.NilError(t, err)
	assert.DeepEqual(t, second, first)
	calls, _ := engine.stats()
	assert.Equal(t, calls, 1)

	clk.Advance(2 * time.Second)
	_, err = s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	calls, _ = engine.stats()
	assert.Equal(t, calls, 2)
}

func TestSuggestions_ModeIsPartOfKey(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	s := newScheduler(t, engine, nil, Options{Debounce: time.Millisecond})

	_, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	_, err = s.Suggestions(ctx, "golang", model.ModeNewTab)
	assert.NilError(t, err)

	calls, _ := engine.stats()
	assert.Equal(t, calls, 2)
	assert.Equal(t, engine.lastMode, model.ModeNewTab)
}

func TestSuggestions_CachedResultsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(t, &fakeEngine{}, nil, Options{Debounce: time.Millisecond})

	first, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	first[0].Title = "mutated"

	second, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	assert.Equal(t, second[0].Title, "golang")
}

func TestSuggestions_DebounceCoalesces(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	s := newScheduler(t, engine, nil, Options{})

	var wg sync.WaitGroup
	errs := make([]error, 10)
	results := make([][]model.Result, 10)
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = s.Suggestions(ctx, fmt.Sprintf("q%d", i), model.ModeCurrentTab)
		}()
		time.Sleep(10 * time.Millisecond)
	}
	wg.Wait()

	calls, last := engine.stats()
	assert.Equal(t, calls, 1)
	assert.Equal(t, last, "q9")

	for i := 0; i < 9; i++ {
		assert.Assert(t, errors.Is(errs[i], ErrSuperseded), "call %d: %v", i, errs[i])
	}
	assert.NilError(t, errs[9])
	assert.Equal(t, results[9][0].Title, "q9")
}

func TestSuggestions_CacheHitBypassesDebounce(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	s := newScheduler(t, engine, nil, Options{Debounce: time.Millisecond})

	_, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)

	// a long debounce would block a miss; the hit returns at once
	s.opts.Debounce = time.Hour
	start := time.Now()
	_, err = s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	assert.Assert(t, time.Since(start) < time.Second)
}

func TestSuggestions_ContextCancel(t *testing.T) {
	engine := &fakeEngine{}
	s := newScheduler(t, engine, nil, Options{Debounce: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.Assert(t, errors.Is(err, context.DeadlineExceeded))
	calls, _ := engine.stats()
	assert.Equal(t, calls, 0)
}

func TestStop(t *testing.T) {
	s := newScheduler(t, &fakeEngine{}, nil, Options{Debounce: time.Hour})

	errc := make(chan error, 1)
	go func() {
		_, err := s.Suggestions(context.Background(), "golang", model.ModeCurrentTab)
		errc <- err
	}()

	// wait until the call is pending
	for {
		s.mu.Lock()
		pending := s.pending != nil
		s.mu.Unlock()
		if pending {
			break
		}
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	assert.Assert(t, errors.Is(<-errc, ErrSuperseded))
}

func TestImmediate_NeverCached(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	s := newScheduler(t, engine, nil, Options{})

	r := s.Immediate(ctx, "golang", model.ModeCurrentTab)
	s.Immediate(ctx, "golang", model.ModeCurrentTab)

	assert.Equal(t, r[0].Title, "local golang")
	assert.Equal(t, engine.localCalls, 2)
	assert.Equal(t, engine.calls, 0)
}

func TestAutocomplete_Stale(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{results: []model.Result{{Type: model.TypeAutocompleteSuggestion, Title: "golang tutorial"}}}
	s := newScheduler(t, &fakeEngine{}, remote, Options{})
	g := s.Generation()

	gen := g.Next()
	results, err := s.Autocomplete(ctx, gen, "golang")
	assert.NilError(t, err)
	assert.Equal(t, len(results), 1)

	// superseded before the call
	old := gen
	g.Next()
	_, err = s.Autocomplete(ctx, old, "golang")
	assert.Assert(t, errors.Is(err, ErrStale))
	assert.Equal(t, remote.calls, 1)

	// superseded while the call was in flight
	gen = g.Current()
	remote.during = func() { g.Next() }
	_, err = s.Autocomplete(ctx, gen, "golang")
	assert.Assert(t, errors.Is(err, ErrStale))
	assert.Equal(t, remote.calls, 2)
}

func TestAutocomplete_Error(t *testing.T) {
	boom := errors.New("remote down")
	s := newScheduler(t, &fakeEngine{}, &fakeRemote{err: boom}, Options{})
	gen := s.Generation().Next()

	_, err := s.Autocomplete(context.Background(), gen, "golang")
	assert.Assert(t, errors.Is(err, boom))
}

func TestAutocomplete_NoRemote(t *testing.T) {
	s := newScheduler(t, &fakeEngine{}, nil, Options{})
	results, err := s.Autocomplete(context.Background(), s.Generation().Next(), "golang")
	assert.NilError(t, err)
	assert.Equal(t, len(results), 0)
}

func TestRefine(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{results: []model.Result{{Type: model.TypeAutocompleteSuggestion, Title: "golang tutorial"}}}
	s := newScheduler(t, &fakeEngine{}, remote, Options{})

	gen := s.Generation().Next()
	local := s.Immediate(ctx, "golang", model.ModeCurrentTab)
	merged, err := s.Refine(ctx, gen, "golang", local)
	assert.NilError(t, err)
	assert.Equal(t, len(merged), 2)
	assert.Equal(t, merged[1].Title, "golang tutorial")
}

func TestGeneration(t *testing.T) {
	var g Generation
	assert.Equal(t, g.Current(), uint64(0))
	a := g.Next()
	assert.Assert(t, g.IsCurrent(a))
	b := g.Next()
	assert.Assert(t, b > a)
	assert.Assert(t, !g.IsCurrent(a))
	assert.Equal(t, g.Current(), b)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{}
	s := newScheduler(t, engine, nil, Options{Debounce: time.Millisecond})

	_, _ = s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	s.Purge()
	_, _ = s.Suggestions(ctx, "golang", model.ModeCurrentTab)

	calls, _ := engine.stats()
	assert.Equal(t, calls, 2)
}

// slowProvider serves one open tab after a delay, or gives up when the
// context ends first.
type slowProvider struct {
	delay   time.Duration
	started chan struct{}
}

func (p *slowProvider) OpenTabs(ctx context.Context, _ string) ([]model.TabRecord, error) {
	select {
	case p.started <- struct{}{}:
	default:
	}
	select {
	case <-time.After(p.delay):
		return []model.TabRecord{{ID: 7, Title: "Golang docs", URL: "https://go.dev/doc"}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *slowProvider) RecentTabs(context.Context, int) ([]model.TabRecord, error) { return nil, nil }
func (p *slowProvider) Bookmarks(context.Context, string) ([]model.BookmarkRecord, error) {
	return nil, nil
}
func (p *slowProvider) History(context.Context, string) ([]model.HistoryRecord, error) {
	return nil, nil
}
func (p *slowProvider) TopSites(context.Context) ([]model.SiteRecord, error) { return nil, nil }
func (p *slowProvider) Autocomplete(context.Context, string) ([]model.Result, error) { return nil, nil }
func (p *slowProvider) PinnedTabs(context.Context, string) ([]model.PinnedTabRecord, error) {
	return nil, nil
}

// finishing reports each completed engine pass.
type finishing struct {
	*engine.Engine
	passes chan struct{}
}

func (f finishing) Suggestions(ctx context.Context, query string, mode model.Mode) []model.Result {
	defer func() { f.passes <- struct{}{} }()
	return f.Engine.Suggestions(ctx, query, mode)
}

func TestSuggestions_CancelledPassNotCached(t *testing.T) {
	p := &slowProvider{delay: 50 * time.Millisecond, started: make(chan struct{}, 1)}
	eng := finishing{Engine: engine.New(p, nil, engine.Options{}), passes: make(chan struct{}, 4)}
	s := newScheduler(t, eng, nil, Options{Debounce: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-p.started
		cancel()
	}()
	_, err := s.Suggestions(ctx, "golang", model.ModeCurrentTab)
	assert.Assert(t, errors.Is(err, context.Canceled))

	// the cancelled pass degraded to the instant suggestion
	<-eng.passes
	assert.Equal(t, s.cache.Len(), 0)

	results, err := s.Suggestions(context.Background(), "golang", model.ModeCurrentTab)
	assert.NilError(t, err)
	var titles []string
	for _, r := range results {
		titles = append(titles, r.Title)
	}
	assert.Assert(t, slices.Contains(titles, "Golang docs"), "got %v", titles)
}
