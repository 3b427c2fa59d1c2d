package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/spotlight/internal/model"
)

type fakeEnv struct {
	calls     []string
	active    *model.TabRecord
	activeErr error
	fail      map[string]error
}

func (f *fakeEnv) record(call string) error {
	f.calls = append(f.calls, call)
	name, _, _ := strings.Cut(call, " ")
	return f.fail[name]
}

func (f *fakeEnv) ActivateTab(_ context.Context, id int) error {
	return f.record(fmt.Sprintf("activate %d", id))
}

func (f *fakeEnv) FocusWindow(_ context.Context, id int) error {
	return f.record(fmt.Sprintf("focus %d", id))
}

func (f *fakeEnv) NavigateTab(_ context.Context, id int, url string) error {
	return f.record(fmt.Sprintf("navigate %d %s", id, url))
}

func (f *fakeEnv) CreateTab(_ context.Context, url string) error {
	return f.record("create " + url)
}

func (f *fakeEnv) ActiveTab(context.Context) (*model.TabRecord, error) {
	f.calls = append(f.calls, "active")
	return f.active, f.activeErr
}

func (f *fakeEnv) Search(_ context.Context, text string, d Disposition) error {
	return f.record(fmt.Sprintf("search %s %s", d, text))
}

func intPtr(i int) *int { return &i }

func tabResult(tabID, windowID int) model.Result {
	return model.NewResult(model.NewResultParams{
		Type:     model.TypeOpenTab,
		Title:    "Docs",
		URL:      "https://docs.example",
		Metadata: model.Metadata{Tab: &model.TabMeta{TabID: tabID, WindowID: windowID}},
	})
}

func TestDispatch(t *testing.T) {
	bookmark := model.NewResult(model.NewResultParams{Type: model.TypeBookmark, Title: "Go", URL: "https://go.dev"})
	searchResult := model.NewResult(model.NewResultParams{
		Type: model.TypeSearchQuery, Title: `Search for "go"`, Metadata: model.Metadata{Query: "go"},
	})

	tests := []struct {
		name      string
		result    model.Result
		mode      model.Mode
		hint      *int
		active    *model.TabRecord
		wantCalls []string
	}{
		{
			name:      "open tab new-tab mode switches and focuses",
			result:    tabResult(5, 2),
			mode:      model.ModeNewTab,
			wantCalls: []string{"activate 5", "focus 2"},
		},
		{
			name:      "open tab without window only activates",
			result:    tabResult(5, 0),
			mode:      model.ModeNewTab,
			wantCalls: []string{"activate 5"},
		},
		{
			name:      "open tab current-tab mode navigates hinted tab",
			result:    tabResult(5, 2),
			mode:      model.ModeCurrentTab,
			hint:      intPtr(9),
			wantCalls: []string{"navigate 9 https://docs.example"},
		},
		{
			name:      "open tab current-tab mode discovers active tab",
			result:    tabResult(5, 2),
			mode:      model.ModeCurrentTab,
			active:    &model.TabRecord{ID: 3},
			wantCalls: []string{"active", "navigate 3 https://docs.example"},
		},
		{
			name:      "bookmark new-tab mode creates tab",
			result:    bookmark,
			mode:      model.ModeNewTab,
			wantCalls: []string{"create https://go.dev"},
		},
		{
			name:      "bookmark current-tab mode navigates",
			result:    bookmark,
			mode:      model.ModeCurrentTab,
			active:    &model.TabRecord{ID: 1},
			wantCalls: []string{"active", "navigate 1 https://go.dev"},
		},
		{
			name:      "search new-tab",
			result:    searchResult,
			mode:      model.ModeNewTab,
			wantCalls: []string{"search NEW_TAB go"},
		},
		{
			name:      "search current-tab",
			result:    searchResult,
			mode:      model.ModeCurrentTab,
			wantCalls: []string{"search CURRENT_TAB go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &fakeEnv{active: tt.active}
			d := NewDispatcher(env, nil)

			err := d.Dispatch(context.Background(), tt.result, tt.mode, tt.hint)
			assert.NilError(t, err)
			assert.DeepEqual(t, env.calls, tt.wantCalls)
		})
	}
}

func TestDispatch_OtherURLTypes(t *testing.T) {
	for _, typ := range []model.ResultType{
		model.TypeURLSuggestion, model.TypeHistory, model.TypeTopSite, model.TypeAutocompleteSuggestion,
	} {
		t.Run(string(typ), func(t *testing.T) {
			env := &fakeEnv{}
			r := model.NewResult(model.NewResultParams{Type: typ, Title: "x", URL: "https://x.example"})
			assert.NilError(t, NewDispatcher(env, nil).Dispatch(context.Background(), r, model.ModeNewTab, nil))
			assert.DeepEqual(t, env.calls, []string{"create https://x.example"})
		})
	}
}

func TestDispatch_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		result model.Result
		mode   model.Mode
		field  string
	}{
		{"open tab without tab id", model.Result{Type: model.TypeOpenTab, URL: "https://x.example"}, model.ModeNewTab, "tabId"},
		{"pinned tab without tab id", model.Result{Type: model.TypePinnedTab, URL: "https://x.example"}, model.ModeNewTab, "tabId"},
		{"open tab without url", model.Result{Type: model.TypeOpenTab, Metadata: model.Metadata{Tab: &model.TabMeta{TabID: 1}}}, model.ModeCurrentTab, "url"},
		{"bookmark without url", model.Result{Type: model.TypeBookmark}, model.ModeNewTab, "url"},
		{"search without query", model.Result{Type: model.TypeSearchQuery, Title: "x"}, model.ModeNewTab, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &fakeEnv{}
			err := NewDispatcher(env, nil).Dispatch(context.Background(), tt.result, tt.mode, intPtr(1))

			assert.Assert(t, errors.Is(err, ErrMissingField))
			var de *DispatchError
			assert.Assert(t, errors.As(err, &de))
			assert.Equal(t, de.Field, tt.field)
			assert.Assert(t, is.Contains(err.Error(), tt.field))
			assert.Equal(t, len(env.calls), 0, "no environment call expected")
		})
	}
}

func TestDispatch_UnsupportedType(t *testing.T) {
	env := &fakeEnv{}
	err := NewDispatcher(env, nil).Dispatch(context.Background(),
		model.Result{Type: "mystery", URL: "https://x.example"}, model.ModeNewTab, nil)

	assert.Assert(t, errors.Is(err, ErrUnsupportedType))
	assert.Equal(t, len(env.calls), 0)
}

func TestDispatch_UnsupportedMode(t *testing.T) {
	env := &fakeEnv{}
	err := NewDispatcher(env, nil).Dispatch(context.Background(), tabResult(1, 1), "sideways", nil)

	assert.Assert(t, errors.Is(err, ErrUnsupportedMode))
	assert.Equal(t, len(env.calls), 0)
}

func TestDispatch_NoActiveTab(t *testing.T) {
	r := model.NewResult(model.NewResultParams{Type: model.TypeHistory, Title: "x", URL: "https://x.example"})

	env := &fakeEnv{}
	err := NewDispatcher(env, nil).Dispatch(context.Background(), r, model.ModeCurrentTab, nil)
	assert.Assert(t, errors.Is(err, ErrNoActiveTab))

	lookupErr := errors.New("window gone")
	env = &fakeEnv{activeErr: lookupErr}
	err = NewDispatcher(env, nil).Dispatch(context.Background(), r, model.ModeCurrentTab, nil)
	assert.Assert(t, errors.Is(err, ErrNoActiveTab))
	assert.Assert(t, errors.Is(err, lookupErr))
}

func TestDispatch_EnvironmentFailurePropagates(t *testing.T) {
	gone := errors.New("tab closed")
	env := &fakeEnv{fail: map[string]error{"activate": gone}}

	err := NewDispatcher(env, nil).Dispatch(context.Background(), tabResult(5, 2), model.ModeNewTab, nil)

	assert.Assert(t, errors.Is(err, gone))
	var de *DispatchError
	assert.Assert(t, errors.As(err, &de))
	assert.Equal(t, de.Type, model.TypeOpenTab)
	assert.DeepEqual(t, env.calls, []string{"activate 5"})
}
