package search

import (
	"fmt"
	"strings"
)

// Sort is the parsed form of an order parameter, echoed back in listing metadata.
type Sort struct {
	By    string `json:"by"`
	Order string `json:"order"`
}

func (s Sort) String() string {
	if s.By == "" {
		return ""
	}
	return s.By + " " + s.Order
}

// Columns maps sortable public column names to SQL expressions.
type Columns map[string]string

// SeverityRank orders severity text by rank; unknown values sort lowest.
func SeverityRank(column string) string {
	return "CASE LOWER(" + column + ")" +
		" WHEN 'critical' THEN 5 WHEN 'high' THEN 4 WHEN 'medium' THEN 3" +
		" WHEN 'low' THEN 2 WHEN 'info' THEN 1 ELSE 0 END"
}

// ParseSort splits "<column> [asc|desc]". Direction defaults to asc.
func ParseSort(order string) (Sort, error) {
	fields := strings.Fields(strings.ToLower(order))
	switch len(fields) {
	case 0:
		return Sort{}, nil
	case 1:
		return Sort{By: fields[0], Order: "asc"}, nil
	case 2:
		if fields[1] != "asc" && fields[1] != "desc" {
			return Sort{}, fmt.Errorf("%w: direction %q", ErrInvalidOrder, fields[1])
		}
		return Sort{By: fields[0], Order: fields[1]}, nil
	default:
		return Sort{}, fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}
}

// OrderBy compiles an order parameter into an ORDER BY body. An empty order
// falls back to def. tiebreak is appended so paging is stable.
func OrderBy(order, def string, columns Columns, tiebreak string) (string, Sort, error) {
	if strings.TrimSpace(order) == "" {
		order = def
	}
	s, err := ParseSort(order)
	if err != nil {
		return "", Sort{}, err
	}
	if s.By == "" {
		return tiebreak + " ASC", s, nil
	}
	expr, ok := columns[s.By]
	if !ok {
		return "", Sort{}, fmt.Errorf("%w: unknown column %q", ErrInvalidOrder, s.By)
	}
	return expr + " " + strings.ToUpper(s.Order) + ", " + tiebreak + " ASC", s, nil
}
