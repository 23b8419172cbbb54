package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"preupgrade/internal/reportview"
)

// Fixed column widths; the title column takes what is left.
var columnWidths = map[string]int{
	"hostname":        22,
	"severity":        14,
	"has_remediation": 16,
	"inhibitor":       10,
}

const (
	minTitleWidth = 16
	cursorWidth   = 2
	columnGap     = 1
)

func (m Model) View() string {
	v := m.panel.View()

	var sections []string
	sections = append(sections, m.renderHeader(v))

	switch {
	case !v.Applies:
		sections = append(sections, m.styles.Status.Render(
			fmt.Sprintf("Job run %d did not run the preupgrade template.", m.run.ID)))
	case v.Expanded:
		sections = append(sections, m.renderSearch(v))
		sections = append(sections, m.renderBody(v)...)
		sections = append(sections, m.renderFooter(v))
	}

	sections = append(sections, m.styles.Rule.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderHelp())
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader(v reportview.View) string {
	marker := "▸"
	if v.Expanded {
		marker = "▾"
	}
	title := fmt.Sprintf("%s Preupgrade report · job run %d", marker, m.run.ID)
	if v.ReportID != 0 {
		title += fmt.Sprintf(" · report %d", v.ReportID)
		if v.Hostname != "" {
			title += " (" + v.Hostname + ")"
		}
	}
	return m.styles.Title.Render(ansi.Truncate(title, m.width, "…"))
}

func (m Model) renderSearch(v reportview.View) string {
	if m.focus == FocusSearch {
		return m.search.View()
	}
	if v.RawSearch == "" {
		return m.styles.Status.Render("search: (none, press / to filter)")
	}
	return m.styles.Status.Render("search: " + v.RawSearch)
}

func (m Model) renderBody(v reportview.View) []string {
	var lines []string
	switch {
	case v.ErrorMessage != "":
		lines = append(lines, m.styles.Error.Render("Error: "+v.ErrorMessage))
	case v.Pending:
		lines = append(lines, m.styles.Status.Render("Loading..."))
	}
	if v.EmptyMessage != "" {
		return append(lines, m.styles.Status.Render(v.EmptyMessage))
	}
	if len(v.Rows) == 0 {
		return lines
	}

	widths := m.widths(v.Columns)
	lines = append(lines, m.renderColumns(v.Columns, widths))
	for i, row := range v.Rows {
		lines = append(lines, m.renderRow(row, widths, i == m.cursor && m.focus == FocusTable))
		if row.Expanded {
			lines = append(lines, m.renderDetails(row)...)
		}
	}
	return lines
}

func (m Model) widths(cols []reportview.ColumnHeader) []int {
	out := make([]int, len(cols))
	used := cursorWidth
	titleAt := -1
	for i, c := range cols {
		if w, ok := columnWidths[c.Key]; ok {
			out[i] = w
			used += w + columnGap
			continue
		}
		titleAt = i
		used += columnGap
	}
	if titleAt >= 0 {
		out[titleAt] = max(m.width-used, minTitleWidth)
	}
	return out
}

func (m Model) renderColumns(cols []reportview.ColumnHeader, widths []int) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		label := c.Label
		switch c.Sorted {
		case reportview.Asc:
			label += " ▲"
		case reportview.Desc:
			label += " ▼"
		}
		cells[i] = pad(label, widths[i], m.styles.Header)
	}
	return strings.Repeat(" ", cursorWidth) + strings.Join(cells, strings.Repeat(" ", columnGap))
}

func (m Model) renderRow(row reportview.Row, widths []int, selected bool) string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		style := m.styles.Tone(c.Tone)
		if selected {
			style = style.Inherit(m.styles.Selected)
		}
		cells[i] = pad(c.Text, widths[i], style)
	}
	prefix := "  "
	if row.Expanded {
		prefix = "▾ "
	}
	if selected {
		prefix = "> "
	}
	return prefix + strings.Join(cells, strings.Repeat(" ", columnGap))
}

func (m Model) renderDetails(row reportview.Row) []string {
	details := reportview.Details(row.Entry)
	if len(details) == 0 {
		return []string{m.styles.Muted.Render("    No further details.")}
	}
	for _, c := range row.Cells {
		if c.Annotation != "" {
			details = append([]reportview.DetailLine{{Label: "Note", Text: c.Annotation}}, details...)
		}
	}
	lines := make([]string, 0, len(details))
	for _, d := range details {
		label := m.styles.Label.Render(d.Label + ":")
		text := ansi.Truncate(strings.Join(strings.Fields(d.Text), " "), max(m.width-lipgloss.Width(label)-5, 10), "…")
		lines = append(lines, "    "+label+" "+text)
	}
	return lines
}

func (m Model) renderFooter(v reportview.View) string {
	if v.ReportAbsent {
		return ""
	}
	pages := max(v.Pages, 1)
	return m.styles.Status.Render(fmt.Sprintf("page %d of %d · %d entries · %d per page · sort %s",
		v.Page, pages, v.Total, v.PerPage, v.Sort))
}

func (m Model) renderHelp() string {
	var parts []string
	for _, b := range m.keys.help() {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, m.styles.HelpKey.Render(h.Key)+" "+m.styles.Help.Render(h.Desc))
	}
	return ansi.Truncate(strings.Join(parts, m.styles.Help.Render(" · ")), m.width, "…")
}

// pad truncates s to w cells and pads it to exactly w.
func pad(s string, w int, style lipgloss.Style) string {
	s = ansi.Truncate(s, w, "…")
	if n := lipgloss.Width(s); n < w {
		s += strings.Repeat(" ", w-n)
	}
	return style.Render(s)
}
