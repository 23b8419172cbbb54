package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"preupgrade/internal/domain"
	"preupgrade/internal/reportview"
)

var leappRun = domain.JobRun{ID: 9, TemplateName: domain.LeappTemplateMarker}

// fakeSource serves n entries of report 3, paging them like the server and
// recording every query.
type fakeSource struct {
	n       int
	queries []reportview.ServerQuery
	failing bool
}

func (f *fakeSource) ReportsForJobRun(_ context.Context, jobRunID int64) ([]domain.Report, error) {
	return []domain.Report{{ID: 3, JobInvocationID: jobRunID, Hostname: "web01"}}, nil
}

func (f *fakeSource) ReportPage(_ context.Context, reportID int64, q reportview.ServerQuery) (reportview.ReportPage, error) {
	f.queries = append(f.queries, q)
	if f.failing {
		return reportview.ReportPage{}, errors.New("connection refused")
	}
	var entries []domain.ReportEntry
	for i := 1; i <= f.n; i++ {
		e := domain.ReportEntry{
			ID:       int64(i),
			Title:    fmt.Sprintf("Finding %02d", i),
			Hostname: "web01",
			Severity: domain.SeverityLow,
			Summary:  fmt.Sprintf("summary %d", i),
		}
		if q.Search != "" && !strings.Contains(e.Title, q.Search) {
			continue
		}
		entries = append(entries, e)
	}
	page := reportview.ReportPage{Report: domain.Report{ID: reportID, Hostname: "web01"}, Total: f.n, Subtotal: len(entries), Page: q.Page, PerPage: q.PerPage}
	from := min((q.Page-1)*q.PerPage, len(entries))
	to := min(from+q.PerPage, len(entries))
	page.Entries = entries[from:to]
	return page, nil
}

func (f *fakeSource) last() reportview.ServerQuery { return f.queries[len(f.queries)-1] }

// settle runs cmd and every follow-up panel request it produces.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		res, ok := cmd().(resultMsg)
		if !ok {
			t.Fatalf("command did not produce a panel result")
		}
		next, c := m.Update(res)
		m, cmd = next.(Model), c
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, c := m.Update(msg)
		m, cmd = next.(Model), c
	}
	return m, cmd
}

func started(t *testing.T, src *fakeSource) Model {
	t.Helper()
	m := New(context.Background(), src, leappRun)
	return settle(t, m, m.Init())
}

func TestModel_InitLoadsFirstPage(t *testing.T) {
	src := &fakeSource{n: 12}
	m := started(t, src)

	v := m.panel.View()
	if v.Status != reportview.StatusResolved || len(v.Rows) != 5 || v.Total != 12 {
		t.Fatalf("view = status %v rows %d total %d", v.Status, len(v.Rows), v.Total)
	}
	out := m.View()
	for _, want := range []string{"report 3 (web01)", "Finding 01", "Risk Factor ▼", "page 1 of 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModel_Paging(t *testing.T) {
	src := &fakeSource{n: 12}
	m := started(t, src)

	m, cmd := press(t, m, "n")
	m = settle(t, m, cmd)
	if got := src.last().Page; got != 2 {
		t.Errorf("page after n = %d, want 2", got)
	}

	m, cmd = press(t, m, "n")
	m = settle(t, m, cmd)
	if _, cmd = press(t, m, "n"); cmd != nil {
		t.Errorf("n on the last page issued a request")
	}

	m, cmd = press(t, m, "+")
	m = settle(t, m, cmd)
	if q := src.last(); q.PerPage != 10 || q.Page != 1 {
		t.Errorf("query after + = %+v, want per_page 10 page 1", q)
	}

	m, cmd = press(t, m, "-")
	settle(t, m, cmd)
	if q := src.last(); q.PerPage != 5 {
		t.Errorf("per_page after - = %d, want 5", q.PerPage)
	}
}

func TestModel_Sort(t *testing.T) {
	src := &fakeSource{n: 3}
	m := started(t, src)

	m, cmd := press(t, m, "r")
	m = settle(t, m, cmd)
	if got := src.last().Order; got != "severity asc" {
		t.Errorf("order after r = %q, want severity asc", got)
	}

	m, cmd = press(t, m, "s")
	settle(t, m, cmd)
	if got := src.last().Order; got != "title asc" {
		t.Errorf("order after s = %q, want title asc", got)
	}
}

func TestModel_SearchDebounce(t *testing.T) {
	src := &fakeSource{n: 12}
	m := started(t, src)
	fetches := len(src.queries)

	m, _ = press(t, m, "/")
	if m.focus != FocusSearch {
		t.Fatalf("focus = %v, want search", m.focus)
	}
	m, _ = press(t, m, "1", "1")
	if got := m.panel.View().RawSearch; got != "11" {
		t.Fatalf("RawSearch = %q, want 11", got)
	}

	// The first keystroke's timer is stale.
	next, cmd := m.Update(debounceMsg{gen: 1})
	m = next.(Model)
	if cmd != nil || len(src.queries) != fetches {
		t.Fatalf("stale debounce issued a request")
	}

	next, cmd = m.Update(debounceMsg{gen: 2})
	m = settle(t, next.(Model), cmd)
	if q := src.last(); q.Search != "11" || q.Page != 1 {
		t.Errorf("query = %+v, want search 11", q)
	}
	if v := m.panel.View(); v.Total != 1 || len(v.Rows) != 1 {
		t.Errorf("view total %d rows %d, want 1/1", v.Total, len(v.Rows))
	}

	m, cmd = press(t, m, "esc")
	m = settle(t, m, cmd)
	if m.focus != FocusTable || src.last().Search != "" {
		t.Errorf("esc: focus %v search %q", m.focus, src.last().Search)
	}
}

func TestModel_SearchSubmit(t *testing.T) {
	src := &fakeSource{n: 12}
	m := started(t, src)

	m, _ = press(t, m, "/", "0", "2")
	m, cmd := press(t, m, "enter")
	m = settle(t, m, cmd)
	if src.last().Search != "02" || m.focus != FocusTable {
		t.Errorf("submit: search %q focus %v", src.last().Search, m.focus)
	}
	if !strings.Contains(m.View(), "search: 02") {
		t.Errorf("View() does not echo the search")
	}
}

func TestModel_RowExpansion(t *testing.T) {
	src := &fakeSource{n: 4}
	m := started(t, src)

	m, _ = press(t, m, "down", "enter")
	v := m.panel.View()
	if v.Rows[0].Expanded || !v.Rows[1].Expanded {
		t.Fatalf("expanded = %v/%v, want row 2 only", v.Rows[0].Expanded, v.Rows[1].Expanded)
	}
	if !strings.Contains(m.View(), "summary 2") {
		t.Errorf("View() does not show details of the expanded row")
	}

	m, _ = press(t, m, "a")
	if !m.panel.View().AllExpanded {
		t.Errorf("a did not expand every row")
	}
	m, _ = press(t, m, "a")
	if m.panel.AllExpanded() {
		t.Errorf("second a did not collapse")
	}

	m, _ = press(t, m, "up", "up", "up")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestModel_TogglePanel(t *testing.T) {
	src := &fakeSource{n: 4}
	m := started(t, src)
	fetches := len(src.queries)

	m, cmd := press(t, m, "x")
	if cmd != nil || m.panel.Expanded() {
		t.Fatalf("x did not collapse the panel")
	}
	if strings.Contains(m.View(), "Finding 01") {
		t.Errorf("collapsed View() still shows rows")
	}

	m, cmd = press(t, m, "x")
	settle(t, m, cmd)
	if len(src.queries) != fetches+1 {
		t.Errorf("re-expanding fetched %d times, want 1", len(src.queries)-fetches)
	}
}

func TestModel_FetchErrorAndRefresh(t *testing.T) {
	src := &fakeSource{n: 4, failing: true}
	m := started(t, src)

	if !strings.Contains(m.View(), "Error: connection refused") {
		t.Fatalf("View() = %q, want the fetch error", m.View())
	}

	src.failing = false
	m, cmd := press(t, m, "R")
	m = settle(t, m, cmd)
	if v := m.panel.View(); v.ErrorMessage != "" || len(v.Rows) != 4 {
		t.Errorf("after refresh: error %q rows %d", v.ErrorMessage, len(v.Rows))
	}
}

func TestModel_NotApplicable(t *testing.T) {
	m := New(context.Background(), &fakeSource{}, domain.JobRun{ID: 5, TemplateName: "Run Command - Script Default"})
	if cmd := m.Init(); cmd != nil {
		t.Errorf("Init() issued a request for a non-preupgrade job")
	}
	if !strings.Contains(m.View(), "did not run the preupgrade template") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestModel_QuitClosesPanel(t *testing.T) {
	m := started(t, &fakeSource{n: 1})
	m, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q did not quit")
	}
	if req := m.panel.Expand(); req != nil {
		t.Errorf("closed panel still expands")
	}
}

func TestStepPerPage(t *testing.T) {
	tests := []struct{ cur, dir, want int }{
		{5, 1, 10},
		{100, 1, 100},
		{7, 1, 10},
		{10, -1, 5},
		{5, -1, 5},
	}
	for _, tt := range tests {
		if got := stepPerPage(tt.cur, tt.dir); got != tt.want {
			t.Errorf("stepPerPage(%d, %d) = %d, want %d", tt.cur, tt.dir, got, tt.want)
		}
	}
}
