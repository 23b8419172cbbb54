package reportview

import (
	"context"
	"fmt"

	"preupgrade/internal/domain"
)

// Source is the remote side of the panel: the job-run lookup endpoint and
// the report-by-id endpoint.
type Source interface {
	ReportsForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error)
	ReportPage(ctx context.Context, reportID int64, q ServerQuery) (ReportPage, error)
}

// ReportPage is one page of a report's entries plus its listing metadata.
// Subtotal counts the entries matching the search and drives pagination.
type ReportPage struct {
	Report   domain.Report
	Entries  []domain.ReportEntry
	Total    int
	Subtotal int
	Page     int
	PerPage  int
}

type RequestKind int

const (
	ResolveReport RequestKind = iota
	FetchEntries
)

func (k RequestKind) String() string {
	if k == ResolveReport {
		return "resolve"
	}
	return "fetch"
}

// Request is work the Panel wants done. Lifecycle and Seq identify it when its
// Result comes back so stale completions can be dropped.
type Request struct {
	Kind      RequestKind
	Lifecycle uint64
	Seq       uint64
	JobRunID  int64
	ReportID  int64
	Query     ServerQuery
}

// Result is the outcome of performing a Request.
type Result struct {
	Request Request
	Reports []domain.Report
	Page    ReportPage
	Err     error
}

// ResolutionError is a transport or server fault while locating the report.
type ResolutionError struct {
	JobRunID int64
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve report for job %d: %v", e.JobRunID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// FetchError is a transport or server fault while fetching a page of entries.
type FetchError struct {
	ReportID int64
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch entries of report %d: %v", e.ReportID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Perform executes req against src. It touches no panel state and is safe to
// run off the event loop.
func Perform(ctx context.Context, src Source, req Request) Result {
	res := Result{Request: req}
	switch req.Kind {
	case ResolveReport:
		res.Reports, res.Err = src.ReportsForJobRun(ctx, req.JobRunID)
	case FetchEntries:
		res.Page, res.Err = src.ReportPage(ctx, req.ReportID, req.Query)
	}
	return res
}

// Run performs req and every follow-up request synchronously until the panel
// settles. It is the one-shot host used by the CLI.
func Run(ctx context.Context, src Source, p *Panel, req *Request) {
	for req != nil {
		req = p.Apply(Perform(ctx, src, *req))
	}
}
