package search

import (
	"strconv"
	"strings"
)

// Resource describes what a listing endpoint may search and sort on.
type Resource struct {
	Fields       Fields
	Columns      Columns
	DefaultOrder string
	Tiebreak     string
}

var (
	Reports = Resource{
		Fields:       Fields{"hostname": "hostname", "status": "status"},
		Columns:      Columns{"id": "id", "hostname": "hostname", "status": "status", "created_at": "created_at"},
		DefaultOrder: "id asc",
		Tiebreak:     "id",
	}
	Entries = Resource{
		Fields:       Fields{"title": "title", "hostname": "hostname", "severity": "severity"},
		Columns:      Columns{"title": "title", "hostname": "hostname", "severity": SeverityRank("severity")},
		DefaultOrder: "severity desc",
		Tiebreak:     "id",
	}
)

// Listing is a compiled search and order for one resource.
type Listing struct {
	Filter  Filter
	OrderBy string
	Sort    Sort
}

func (r Resource) Compile(searchExpr, order string) (Listing, error) {
	f, err := Compile(searchExpr, r.Fields)
	if err != nil {
		return Listing{}, err
	}
	orderBy, s, err := OrderBy(order, r.DefaultOrder, r.Columns, r.Tiebreak)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Filter: f, OrderBy: orderBy, Sort: s}, nil
}

// And appends the filter to a base condition.
func (l Listing) And(base string) string {
	if l.Filter.SQL == "" {
		return base
	}
	return base + " AND " + l.Filter.SQL
}

// Rebind rewrites `?` placeholders to `$1`, `$2`, ... starting after offset
// already-bound arguments.
func Rebind(sql string, offset int) string {
	var b strings.Builder
	n := offset
	for _, r := range sql {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
