package reportview

import (
	"unicode"
	"unicode/utf8"

	"preupgrade/internal/domain"
)

const (
	MsgNoResults = "No results found for the search criteria."
	MsgNoIssues  = "The preupgrade report shows no issues."
	MsgInhibitor = "This issue inhibits the upgrade."
)

// Tone is the visual class of a cell; the presentation layer maps it to a style.
type Tone string

const (
	ToneNone    Tone = ""
	ToneDanger  Tone = "danger"
	ToneWarning Tone = "warning"
	ToneInfo    Tone = "info"
	ToneMuted   Tone = "muted"
)

type Cell struct {
	Text       string
	Tone       Tone
	Annotation string
	// Flag holds the value of boolean columns.
	Flag bool
}

// RenderContext carries report-level data column renderers may fall back on.
type RenderContext struct {
	ReportHostname string
}

type ColumnRule struct {
	Key      string
	Label    string
	Sortable bool
	Render   func(e domain.ReportEntry, rc RenderContext) Cell
}

// Columns is the fixed, ordered column set of the report table.
var Columns = []ColumnRule{
	{
		Key:      "title",
		Label:    "Title",
		Sortable: true,
		Render: func(e domain.ReportEntry, _ RenderContext) Cell {
			return Cell{Text: e.Title}
		},
	},
	{
		Key:      "hostname",
		Label:    "Host",
		Sortable: true,
		Render: func(e domain.ReportEntry, rc RenderContext) Cell {
			switch {
			case e.Hostname != "":
				return Cell{Text: e.Hostname}
			case rc.ReportHostname != "":
				return Cell{Text: rc.ReportHostname}
			}
			return Cell{Text: "-", Tone: ToneMuted}
		},
	},
	{
		Key:      "severity",
		Label:    "Risk Factor",
		Sortable: true,
		Render: func(e domain.ReportEntry, _ RenderContext) Cell {
			label, tone := SeverityLabel(e.Severity)
			return Cell{Text: label, Tone: tone}
		},
	},
	{
		Key:   "has_remediation",
		Label: "Has Remediation?",
		Render: func(e domain.ReportEntry, _ RenderContext) Cell {
			return yesNo(e.Detail.HasRemediations(), "")
		},
	},
	{
		Key:   "inhibitor",
		Label: "Inhibitor?",
		Render: func(e domain.ReportEntry, _ RenderContext) Cell {
			c := yesNo(e.IsInhibitor(), MsgInhibitor)
			if c.Flag {
				c.Tone = ToneDanger
			}
			return c
		},
	},
}

func yesNo(v bool, annotation string) Cell {
	if v {
		return Cell{Text: "Yes", Flag: true, Annotation: annotation}
	}
	return Cell{Text: "No"}
}

// Sortable reports whether the server can order by column.
func Sortable(column string) bool {
	for _, c := range Columns {
		if c.Key == column {
			return c.Sortable
		}
	}
	return false
}

// SeverityLabel maps a severity onto its display label and tone.
func SeverityLabel(s domain.Severity) (string, Tone) {
	switch s {
	case domain.SeverityCritical:
		return "Critical", ToneDanger
	case domain.SeverityHigh:
		return "High", ToneDanger
	case domain.SeverityMedium:
		return "Medium", ToneWarning
	case domain.SeverityLow:
		return "Low", ToneInfo
	case domain.SeverityInfo:
		return "Info", ToneMuted
	case "":
		return "-", ToneMuted
	}
	r, n := utf8.DecodeRuneInString(string(s))
	return string(unicode.ToUpper(r)) + string(s)[n:], ToneNone
}

type Row struct {
	ID       int64
	Index    int
	Cells    []Cell
	Expanded bool
	Entry    domain.ReportEntry
}

// BuildRows renders entries through the column rules, preserving order.
func BuildRows(entries []domain.ReportEntry, rules []ColumnRule, rc RenderContext) []Row {
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		cells := make([]Cell, len(rules))
		for j, rule := range rules {
			cells[j] = rule.Render(e, rc)
		}
		rows = append(rows, Row{ID: e.ID, Index: i, Cells: cells, Entry: e})
	}
	return rows
}

type ColumnHeader struct {
	Key      string
	Label    string
	Sortable bool
	// Sorted is the active direction when the table is ordered by this column.
	Sorted SortDirection
}

// View is everything the presentation layer needs to draw the panel.
type View struct {
	Applies      bool
	Expanded     bool
	Status       Status
	Pending      bool
	ErrorMessage string
	EmptyMessage string

	ReportID     int64
	ReportAbsent bool
	Hostname     string

	Columns     []ColumnHeader
	Rows        []Row
	AllExpanded bool

	Page    int
	PerPage int
	Pages   int
	Total   int
	Sort    SortSpec

	RawSearch string
	Search    string
}

// View derives the render model from the current state.
func (p *Panel) View() View {
	v := View{
		Applies:      p.Applies(),
		Expanded:     p.expanded,
		Status:       p.status,
		Pending:      p.status == StatusPending,
		ReportAbsent: p.absent,
		Page:         p.query.Page,
		PerPage:      p.query.PerPage,
		Sort:         p.query.Sort,
		RawSearch:    p.search.Raw(),
		Search:       p.query.Search,
	}
	if p.resolved && !p.absent {
		v.ReportID = p.report.ID
		v.Hostname = p.report.Hostname
	}

	v.Columns = make([]ColumnHeader, len(Columns))
	for i, c := range Columns {
		h := ColumnHeader{Key: c.Key, Label: c.Label, Sortable: c.Sortable}
		if c.Key == p.query.Sort.Column {
			h.Sorted = p.query.Sort.Direction
		}
		v.Columns[i] = h
	}

	if p.page != nil && !p.absent {
		v.Rows = BuildRows(p.page.Entries, Columns, RenderContext{ReportHostname: p.report.Hostname})
		for i := range v.Rows {
			v.Rows[i].Expanded = p.expansion.IsExpanded(v.Rows[i].ID)
		}
		v.Total = p.page.Subtotal
	}
	v.Pages = PageCount(v.Total, v.PerPage)
	v.AllExpanded = p.AllExpanded()

	if p.status == StatusError && p.err != nil {
		v.ErrorMessage = errorMessage(p.err)
	}
	if p.status == StatusResolved && len(v.Rows) == 0 {
		if p.query.Search != "" {
			v.EmptyMessage = MsgNoResults
		} else {
			v.EmptyMessage = MsgNoIssues
		}
	}
	return v
}

// errorMessage unwraps the panel's own error types down to the message the
// transport produced.
func errorMessage(err error) string {
	switch e := err.(type) {
	case *ResolutionError:
		return e.Err.Error()
	case *FetchError:
		return e.Err.Error()
	}
	return err.Error()
}
