package domain

// ListQuery carries the search, order and paging parameters shared by every
// listing endpoint.
type ListQuery struct {
	Search  string
	Order   string
	Page    int
	PerPage int
}

// Offset returns the zero-based row offset of the page.
func (q ListQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Page is one slice of a listing. Total counts every row in scope, Subtotal
// only the rows matching the search.
type Page[T any] struct {
	Items    []T
	Total    int
	Subtotal int
}

// ReportImport is a queued leapp-report.json upload.
type ReportImport struct {
	ID              int64  `json:"id"`
	JobInvocationID int64  `json:"job_invocation_id"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	ReportID        *int64 `json:"report_id"`
}

const (
	ImportQueued    = "queued"
	ImportRunning   = "running"
	ImportCompleted = "completed"
	ImportFailed    = "failed"
)
