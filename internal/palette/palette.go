// Package palette is the interactive terminal search box.
package palette

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/spotlight/internal/engine"
	"github.com/nikbrunner/spotlight/internal/model"
	"github.com/nikbrunner/spotlight/internal/scheduler"
)

// Source runs the two suggestion passes. It is satisfied by
// *scheduler.Scheduler.
type Source interface {
	Immediate(ctx context.Context, query string, mode model.Mode) []model.Result
	Refine(ctx context.Context, gen uint64, query string, local []model.Result) ([]model.Result, error)
	Generation() *scheduler.Generation
}

// localMsg carries the fast local pass for one keystroke.
type localMsg struct {
	gen     uint64
	query   string
	results []model.Result
}

// refinedMsg carries the local pass merged with remote suggestions.
type refinedMsg struct {
	gen     uint64
	results []model.Result
}

type statusMsg string

// Params holds parameters for creating a Model.
type Params struct {
	Context context.Context
	Source  Source
	Mode    model.Mode
	Query   string
	Keys    *KeyMap       // optional, uses default if nil
	Styles  *Styles       // optional, uses default if nil
	Layout  *LayoutConfig // optional, uses default if nil
	// Copy writes to the clipboard. Defaults to clipboard.WriteAll.
	Copy func(string) error
}

// Model is the bubbletea model for the palette.
type Model struct {
	ctx    context.Context
	source Source
	keys   KeyMap
	styles Styles
	layout LayoutConfig
	copy   func(string) error

	input   textinput.Model
	mode    model.Mode
	query   string // query the current results are for
	results []model.Result
	cursor  int
	status  string

	selected  bool
	cancelled bool

	width  int
	height int
}

// New creates a palette Model.
func New(params Params) Model {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}
	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}
	layout := DefaultLayout()
	if params.Layout != nil {
		layout = *params.Layout
	}
	if params.Context == nil {
		params.Context = context.Background()
	}
	if params.Copy == nil {
		params.Copy = clipboard.WriteAll
	}
	if !params.Mode.Valid() {
		params.Mode = model.ModeCurrentTab
	}

	input := textinput.New()
	input.Placeholder = "Search or enter address"
	input.Prompt = "› "
	input.PromptStyle = styles.Prompt
	input.CharLimit = 2048
	input.Cursor.SetMode(cursor.CursorStatic)
	input.SetValue(params.Query)
	input.Focus()

	return Model{
		ctx:    params.Context,
		source: params.Source,
		keys:   keys,
		styles: styles,
		layout: layout,
		copy:   params.Copy,
		input:  input,
		mode:   params.Mode,
		query:  params.Query,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.search(m.input.Value())
}

// search starts a new generation and runs its local pass.
func (m Model) search(query string) tea.Cmd {
	gen := m.source.Generation().Next()
	ctx, source, mode := m.ctx, m.source, m.mode
	return func() tea.Msg {
		return localMsg{gen: gen, query: query, results: source.Immediate(ctx, query, mode)}
	}
}

// refine runs the slow pass for a local result set.
func (m Model) refine(msg localMsg) tea.Cmd {
	if strings.TrimSpace(msg.query) == "" {
		return nil
	}
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		results, err := source.Refine(ctx, msg.gen, msg.query, msg.results)
		if err != nil {
			// stale or unavailable: the local pass stands
			return nil
		}
		return refinedMsg{gen: msg.gen, results: results}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case localMsg:
		if !m.source.Generation().IsCurrent(msg.gen) {
			return m, nil
		}
		m.setResults(msg.query, msg.results)
		return m, m.refine(msg)

	case refinedMsg:
		if !m.source.Generation().IsCurrent(msg.gen) {
			return m, nil
		}
		m.setResults(m.query, msg.results)
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Open):
			if len(m.Items()) > 0 {
				m.selected = true
				return m, tea.Quit
			}
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.Items())-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keys.ToggleMode):
			if m.mode == model.ModeNewTab {
				m.mode = model.ModeCurrentTab
			} else {
				m.mode = model.ModeNewTab
			}
			return m, m.search(m.input.Value())

		case key.Matches(msg, m.keys.YankURL):
			return m, m.yank()
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.status = ""
			return m, tea.Batch(cmd, m.search(m.input.Value()))
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) setResults(query string, results []model.Result) {
	m.query = query
	m.results = results
	if n := len(m.Items()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) yank() tea.Cmd {
	r, ok := m.current()
	if !ok || r.URL == "" {
		return nil
	}
	copyFn, url := m.copy, r.URL
	return func() tea.Msg {
		if err := copyFn(url); err != nil {
			return statusMsg(fmt.Sprintf("copy failed: %v", err))
		}
		return statusMsg("copied " + url)
	}
}

// Items returns what the palette lists: the instant suggestion for the
// typed text followed by the ranked results, without duplicates.
func (m Model) Items() []model.Result {
	return engine.WithInstant(m.query, m.results)
}

func (m Model) current() (model.Result, bool) {
	items := m.Items()
	if m.cursor < 0 || m.cursor >= len(items) {
		return model.Result{}, false
	}
	return items[m.cursor], true
}

// Selected returns the chosen result and mode; ok is false when the
// palette was cancelled.
func (m Model) Selected() (r model.Result, mode model.Mode, ok bool) {
	if m.cancelled || !m.selected {
		return model.Result{}, m.mode, false
	}
	r, ok = m.current()
	return r, m.mode, ok
}

// Cancelled returns true if the user closed the palette.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Mode returns the current navigation mode.
func (m Model) Mode() model.Mode {
	return m.mode
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("  ")
	b.WriteString(m.styles.Mode.Render("[" + string(m.mode) + "]"))
	b.WriteString("\n\n")

	items := m.Items()
	if len(items) == 0 {
		b.WriteString(m.styles.Empty.Render("  No results"))
		b.WriteString("\n")
	}

	width := contentWidth(m.width, m.layout)
	start, end := visibleRange(visibleItems(m.height, m.layout), m.cursor, len(items))
	for i := start; i < end; i++ {
		r := items[i]
		style := m.styles.Item
		if i == m.cursor {
			style = m.styles.ItemSelected
		}
		b.WriteString(style.Render(m.renderTitle(r, width)))
		b.WriteString("\n")
		if r.URL != "" {
			b.WriteString("   ")
			b.WriteString(m.styles.URL.Render(truncate(r.URL, width-3)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHints())

	return m.styles.App.Render(b.String())
}

func (m Model) renderTitle(r model.Result, width int) string {
	title := m.styles.Kind.Render(KindLabel(r.Type)) + truncate(r.Title, width-12)
	if space := r.Metadata.Space; space != nil {
		style := m.styles.Space
		if c, ok := spaceColors[space.SpaceColor]; ok {
			style = style.Foreground(c)
		}
		title += " " + style.Render("● "+space.SpaceName)
	}
	return title
}

func (m Model) renderHints() string {
	hints := m.keys.Hints()
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = m.styles.HintKey.Render(h.Help().Key) + ":" + m.styles.HintDesc.Render(h.Help().Desc)
	}
	return strings.Join(parts, " ")
}

// KindLabel is the short source tag shown before a title.
func KindLabel(t model.ResultType) string {
	switch t {
	case model.TypeURLSuggestion:
		return "go"
	case model.TypeSearchQuery, model.TypeAutocompleteSuggestion:
		return "search"
	case model.TypeOpenTab:
		return "tab"
	case model.TypePinnedTab:
		return "pinned"
	case model.TypeBookmark:
		return "bookmark"
	case model.TypeHistory:
		return "history"
	case model.TypeTopSite:
		return "site"
	}
	return ""
}

// truncate shortens s to width display cells.
func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// Run shows the palette and returns the chosen result. ok is false when
// the user closed it without choosing.
func Run(params Params, opts ...tea.ProgramOption) (r model.Result, mode model.Mode, ok bool, err error) {
	final, err := tea.NewProgram(New(params), opts...).Run()
	if err != nil {
		return model.Result{}, "", false, err
	}
	m, isModel := final.(Model)
	if !isModel {
		return model.Result{}, "", false, errors.New("unexpected palette model")
	}
	r, mode, ok = m.Selected()
	return r, mode, ok, nil
}
