// Package reportview is the client-side state machine behind the preupgrade
// report panel: it resolves the report of a job run, tracks the query the user
// is building, issues page fetches and derives the rows to render.
//
// Nothing in this package blocks or spawns goroutines. A host (the TUI, or
// Run for one-shot use) executes the Requests the Panel hands out and feeds
// the Results back on a single goroutine.
package reportview

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

type SortSpec struct {
	Column    string
	Direction SortDirection
}

// DefaultSort lists the most severe findings first.
var DefaultSort = SortSpec{Column: "severity", Direction: Desc}

// DefaultPerPage matches the page size of the report panel.
const DefaultPerPage = 5

func (s SortSpec) String() string {
	if s.Column == "" {
		return ""
	}
	dir := s.Direction
	if dir == "" {
		dir = Asc
	}
	return s.Column + " " + string(dir)
}

// Flip returns the same column sorted the other way.
func (s SortSpec) Flip() SortSpec {
	if s.Direction == Desc {
		return SortSpec{Column: s.Column, Direction: Asc}
	}
	return SortSpec{Column: s.Column, Direction: Desc}
}

// ParseSortSpec reads "<column> [asc|desc]".
func ParseSortSpec(s string) (SortSpec, error) {
	fields := strings.Fields(strings.ToLower(s))
	switch len(fields) {
	case 1:
		return SortSpec{Column: fields[0], Direction: Asc}, nil
	case 2:
		dir := SortDirection(fields[1])
		if dir != Asc && dir != Desc {
			return SortSpec{}, fmt.Errorf("invalid sort direction %q", fields[1])
		}
		return SortSpec{Column: fields[0], Direction: dir}, nil
	}
	return SortSpec{}, fmt.Errorf("invalid sort %q, want \"<column> <asc|desc>\"", s)
}

// QueryState is the part of the panel state that maps onto server parameters.
// Search holds the committed search text; raw keystrokes live in the Debouncer.
type QueryState struct {
	Page    int
	PerPage int
	Sort    SortSpec
	Search  string
}

func NewQueryState() QueryState {
	return QueryState{Page: 1, PerPage: DefaultPerPage, Sort: DefaultSort}
}

// ServerQuery is the canonical wire form of a QueryState.
type ServerQuery struct {
	Search  string
	Order   string
	Page    int
	PerPage int
}

// Encode maps UI state onto server parameters.
func Encode(q QueryState) ServerQuery {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return ServerQuery{
		Search:  q.Search,
		Order:   q.Sort.String(),
		Page:    page,
		PerPage: perPage,
	}
}

// Values renders the query as URL parameters. An empty search is omitted.
func (q ServerQuery) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	return v
}

// PageCount is the number of pages needed to show total rows.
func PageCount(total, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
