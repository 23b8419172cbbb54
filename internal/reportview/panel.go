package reportview

import (
	"errors"

	"preupgrade/internal/domain"
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Panel is the state machine of one report panel attached to a job run.
//
// Each expansion starts a new lifecycle; collapsing or closing the panel ends
// it. Results carry the lifecycle and fetch sequence they were issued under and
// are ignored unless both are still current.
type Panel struct {
	run domain.JobRun

	expanded  bool
	closed    bool
	lifecycle uint64

	resolving bool
	resolved  bool
	absent    bool
	report    domain.Report

	query     QueryState
	search    Debouncer
	expansion Expansion

	fetchSeq uint64
	page     *ReportPage

	status Status
	err    error
}

type Option func(*Panel)

func WithPerPage(n int) Option {
	return func(p *Panel) {
		if n > 0 {
			p.query.PerPage = n
		}
	}
}

func WithSort(s SortSpec) Option {
	return func(p *Panel) {
		if s.Column != "" {
			p.query.Sort = s
		}
	}
}

func WithPage(n int) Option {
	return func(p *Panel) {
		if n > 0 {
			p.query.Page = n
		}
	}
}

// WithSearch starts the panel with an already committed search.
func WithSearch(s string) Option {
	return func(p *Panel) {
		p.query.Search = p.search.Submit(s)
	}
}

func NewPanel(run domain.JobRun, opts ...Option) *Panel {
	p := &Panel{run: run, query: NewQueryState()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Applies reports whether the job run has a preupgrade report panel at all.
func (p *Panel) Applies() bool { return p.run.HasPreupgradeReport() }

func (p *Panel) Expanded() bool { return p.expanded }

func (p *Panel) Status() Status { return p.status }

func (p *Panel) Err() error { return p.err }

func (p *Panel) Query() QueryState { return p.query }

// Expand opens the panel. The report is resolved unless a previous lifecycle
// already found it, in which case the current page is fetched again.
func (p *Panel) Expand() *Request {
	if p.closed || p.expanded || !p.Applies() {
		return nil
	}
	p.expanded = true
	p.lifecycle++
	if p.resolved && !p.absent {
		return p.issueFetch()
	}
	return p.issueResolve()
}

// Collapse ends the current lifecycle. In-flight results are dropped.
func (p *Panel) Collapse() {
	if !p.expanded {
		return
	}
	p.endLifecycle()
}

// Close tears the panel down for good.
func (p *Panel) Close() {
	if p.closed {
		return
	}
	p.endLifecycle()
	p.closed = true
}

func (p *Panel) endLifecycle() {
	p.expanded = false
	p.lifecycle++
	p.resolving = false
	if p.status == StatusPending {
		if p.page != nil {
			p.status = StatusResolved
		} else {
			p.status = StatusIdle
		}
	}
}

func (p *Panel) issueResolve() *Request {
	p.resolving = true
	p.resolved = false
	p.absent = false
	p.status = StatusPending
	p.err = nil
	return &Request{Kind: ResolveReport, Lifecycle: p.lifecycle, JobRunID: p.run.ID}
}

func (p *Panel) issueFetch() *Request {
	if !p.expanded || !p.resolved || p.absent {
		return nil
	}
	p.fetchSeq++
	p.status = StatusPending
	return &Request{
		Kind:      FetchEntries,
		Lifecycle: p.lifecycle,
		Seq:       p.fetchSeq,
		ReportID:  p.report.ID,
		Query:     Encode(p.query),
	}
}

func (p *Panel) live(req Request) bool {
	return !p.closed && p.expanded && req.Lifecycle == p.lifecycle
}

// Apply feeds a completed request back into the panel and returns the
// follow-up request, if any.
func (p *Panel) Apply(res Result) *Request {
	switch res.Request.Kind {
	case ResolveReport:
		return p.ApplyResolve(res.Request, res.Reports, res.Err)
	case FetchEntries:
		p.ApplyFetch(res.Request, res.Page, res.Err)
	}
	return nil
}

// ApplyResolve handles the job-run lookup. The first report wins; none at all
// settles the panel with zero entries.
func (p *Panel) ApplyResolve(req Request, reports []domain.Report, err error) *Request {
	if req.Kind != ResolveReport || !p.live(req) || !p.resolving {
		return nil
	}
	p.resolving = false
	if err != nil {
		p.status = StatusError
		p.err = &ResolutionError{JobRunID: req.JobRunID, Err: err}
		return nil
	}
	if len(reports) == 0 {
		p.resolved = true
		p.absent = true
		p.page = nil
		p.expansion.Reset()
		p.status = StatusResolved
		return nil
	}
	p.report = reports[0]
	p.resolved = true
	return p.issueFetch()
}

// ApplyFetch handles a page of entries. It reports whether the result was
// current; superseded and post-teardown results change nothing.
func (p *Panel) ApplyFetch(req Request, page ReportPage, err error) bool {
	if req.Kind != FetchEntries || !p.live(req) || req.Seq != p.fetchSeq {
		return false
	}
	if err != nil {
		p.status = StatusError
		p.err = &FetchError{ReportID: req.ReportID, Err: err}
		return true
	}
	if page.Report.ID != 0 {
		p.report = page.Report
	}
	pg := page
	p.page = &pg
	p.status = StatusResolved
	p.err = nil
	return true
}

// Refresh fetches the current page again, e.g. after a FetchError.
func (p *Panel) Refresh() *Request {
	if p.resolved && !p.absent {
		return p.issueFetch()
	}
	if p.expanded && !p.resolving {
		return p.issueResolve()
	}
	return nil
}

// TypeSearch echoes a keystroke. The host must call SettleSearch with the
// returned generation once SearchDebounce has passed.
func (p *Panel) TypeSearch(value string) uint64 {
	return p.search.Input(value)
}

// SettleSearch commits the debounced search if gen is still the latest keystroke.
func (p *Panel) SettleSearch(gen uint64) *Request {
	v, ok := p.search.Fire(gen)
	if !ok {
		return nil
	}
	return p.commitSearch(v)
}

// ClearSearch empties the search and commits immediately.
func (p *Panel) ClearSearch() *Request {
	return p.commitSearch(p.search.Clear())
}

// SubmitSearch commits value immediately, bypassing the debounce.
func (p *Panel) SubmitSearch(value string) *Request {
	return p.commitSearch(p.search.Submit(value))
}

func (p *Panel) commitSearch(v string) *Request {
	if v == p.query.Search {
		return nil
	}
	p.query.Search = v
	p.query.Page = 1
	p.expansion.Reset()
	return p.issueFetch()
}

func (p *Panel) SetPage(n int) *Request {
	if n < 1 {
		n = 1
	}
	if n == p.query.Page {
		return nil
	}
	p.query.Page = n
	p.expansion.Reset()
	return p.issueFetch()
}

// SetPerPage changes the page size and returns to the first page.
func (p *Panel) SetPerPage(n int) *Request {
	if n < 1 || n == p.query.PerPage {
		return nil
	}
	p.query.PerPage = n
	p.query.Page = 1
	p.expansion.Reset()
	return p.issueFetch()
}

var ErrUnsortable = errors.New("column is not sortable")

func (p *Panel) SetSort(s SortSpec) (*Request, error) {
	if !Sortable(s.Column) {
		return nil, ErrUnsortable
	}
	if s.Direction == "" {
		s.Direction = Asc
	}
	if s == p.query.Sort {
		return nil, nil
	}
	p.query.Sort = s
	p.expansion.Reset()
	return p.issueFetch(), nil
}

func (p *Panel) visibleIDs() []int64 {
	if p.page == nil {
		return nil
	}
	ids := make([]int64, len(p.page.Entries))
	for i, e := range p.page.Entries {
		ids[i] = e.ID
	}
	return ids
}

func (p *Panel) ToggleRow(id int64, expand bool) { p.expansion.Toggle(id, expand) }

func (p *Panel) ExpandAll() { p.expansion.ExpandAll(p.visibleIDs()) }

func (p *Panel) CollapseAll() { p.expansion.CollapseAll() }

func (p *Panel) AllExpanded() bool { return p.expansion.AllExpanded(p.visibleIDs()) }

// ToggleAll collapses everything when every visible row is expanded and
// expands every visible row otherwise.
func (p *Panel) ToggleAll() {
	if p.AllExpanded() {
		p.CollapseAll()
		return
	}
	p.ExpandAll()
}
