// Package tui is the terminal front end of the preupgrade report panel. It
// hosts a reportview.Panel: key presses become panel calls, the Requests the
// panel hands back run as tea.Cmds and their Results come back as messages.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"preupgrade/internal/domain"
	"preupgrade/internal/reportview"
)

// Focus identifies where keystrokes go.
type Focus int

const (
	// FocusTable means keys drive the panel and the row cursor.
	FocusTable Focus = iota
	// FocusSearch means keystrokes edit the search input.
	FocusSearch
)

// perPageSteps are the page sizes +/- step through.
var perPageSteps = []int{5, 10, 20, 50, 100}

// resultMsg carries a performed panel request back to the event loop.
type resultMsg struct {
	res reportview.Result
}

// debounceMsg fires SearchDebounce after a keystroke in the search input.
type debounceMsg struct {
	gen uint64
}

type Model struct {
	ctx    context.Context
	src    reportview.Source
	run    domain.JobRun
	panel  *reportview.Panel
	keys   KeyMap
	styles Styles

	search textinput.Model
	focus  Focus
	cursor int

	width  int
	height int
}

// New builds a viewer for run. The panel opens as soon as the program starts.
func New(ctx context.Context, src reportview.Source, run domain.JobRun, opts ...reportview.Option) Model {
	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "severity = high and title ~ kernel"
	search.CharLimit = 256

	return Model{
		ctx:    ctx,
		src:    src,
		run:    run,
		panel:  reportview.NewPanel(run, opts...),
		keys:   DefaultKeyMap,
		styles: DefaultStyles(),
		search: search,
		width:  100,
	}
}

// Panel exposes the hosted state machine.
func (m Model) Panel() *reportview.Panel { return m.panel }

func (m Model) Init() tea.Cmd {
	return m.perform(m.panel.Expand())
}

// perform runs req off the event loop. A nil request needs no command.
func (m Model) perform(req *reportview.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	r := *req
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		return resultMsg{res: reportview.Perform(ctx, src, r)}
	}
}

func debounce(gen uint64) tea.Cmd {
	return tea.Tick(reportview.SearchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{gen: gen}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.search.Width = max(msg.Width-len(m.search.Prompt)-2, 10)
		return m, nil

	case resultMsg:
		next := m.panel.Apply(msg.res)
		m.clampCursor()
		return m, m.perform(next)

	case debounceMsg:
		return m, m.perform(m.panel.SettleSearch(msg.gen))

	case tea.KeyMsg:
		if m.focus == FocusSearch {
			return m.handleSearchKeys(msg)
		}
		return m.handleTableKeys(msg)
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.panel.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.ClearSearch):
		m.search.SetValue("")
		m.search.Blur()
		m.focus = FocusTable
		m.cursor = 0
		return m, m.perform(m.panel.ClearSearch())

	case key.Matches(msg, m.keys.Submit):
		m.search.Blur()
		m.focus = FocusTable
		m.cursor = 0
		return m, m.perform(m.panel.SubmitSearch(m.search.Value()))
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.cursor = 0
		return m, tea.Batch(cmd, debounce(m.panel.TypeSearch(v)))
	}
	return m, cmd
}

func (m Model) handleTableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.panel.View()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.panel.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.TogglePanel):
		if m.panel.Expanded() {
			m.panel.Collapse()
			return m, nil
		}
		return m, m.perform(m.panel.Expand())
	}

	if !v.Expanded {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		m.focus = FocusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.ClearSearch):
		if v.RawSearch == "" && v.Search == "" {
			return m, nil
		}
		m.search.SetValue("")
		m.cursor = 0
		return m, m.perform(m.panel.ClearSearch())

	case key.Matches(msg, m.keys.NextPage):
		if v.Page >= v.Pages {
			return m, nil
		}
		m.cursor = 0
		return m, m.perform(m.panel.SetPage(v.Page + 1))

	case key.Matches(msg, m.keys.PrevPage):
		if v.Page <= 1 {
			return m, nil
		}
		m.cursor = 0
		return m, m.perform(m.panel.SetPage(v.Page - 1))

	case key.Matches(msg, m.keys.MorePerPage):
		return m.setPerPage(stepPerPage(v.PerPage, 1))

	case key.Matches(msg, m.keys.LessPerPage):
		return m.setPerPage(stepPerPage(v.PerPage, -1))

	case key.Matches(msg, m.keys.CycleSort):
		req, err := m.panel.SetSort(nextSort(v.Sort))
		if err != nil {
			return m, nil
		}
		return m, m.perform(req)

	case key.Matches(msg, m.keys.FlipSort):
		req, err := m.panel.SetSort(v.Sort.Flip())
		if err != nil {
			return m, nil
		}
		return m, m.perform(req)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.perform(m.panel.Refresh())

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(v.Rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.ToggleRow):
		if m.cursor < len(v.Rows) {
			row := v.Rows[m.cursor]
			m.panel.ToggleRow(row.ID, !row.Expanded)
		}

	case key.Matches(msg, m.keys.ToggleAll):
		m.panel.ToggleAll()
	}
	return m, nil
}

func (m Model) setPerPage(n int) (tea.Model, tea.Cmd) {
	m.cursor = 0
	return m, m.perform(m.panel.SetPerPage(n))
}

func (m *Model) clampCursor() {
	rows := len(m.panel.View().Rows)
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// stepPerPage moves to the neighbouring page size in perPageSteps.
func stepPerPage(current, dir int) int {
	if dir > 0 {
		for _, n := range perPageSteps {
			if n > current {
				return n
			}
		}
		return current
	}
	for i := len(perPageSteps) - 1; i >= 0; i-- {
		if perPageSteps[i] < current {
			return perPageSteps[i]
		}
	}
	return current
}

// nextSort moves to the next sortable column, keeping the direction.
func nextSort(cur reportview.SortSpec) reportview.SortSpec {
	var sortable []string
	for _, c := range reportview.Columns {
		if c.Sortable {
			sortable = append(sortable, c.Key)
		}
	}
	next := sortable[0]
	for i, k := range sortable {
		if k == cur.Column {
			next = sortable[(i+1)%len(sortable)]
			break
		}
	}
	dir := cur.Direction
	if dir == "" {
		dir = reportview.Asc
	}
	return reportview.SortSpec{Column: next, Direction: dir}
}
