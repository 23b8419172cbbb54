package reports

import (
	"context"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
	"preupgrade/internal/search"
)

// Paging bounds applied to every listing.
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

type Service struct {
	jobs    ports.JobRunRepository
	reports ports.ReportRepository
	paging  Paging
}

func New(jobs ports.JobRunRepository, reports ports.ReportRepository, paging Paging) *Service {
	if paging.DefaultPerPage < 1 {
		paging.DefaultPerPage = 20
	}
	if paging.MaxPerPage < paging.DefaultPerPage {
		paging.MaxPerPage = paging.DefaultPerPage
	}
	return &Service{jobs: jobs, reports: reports, paging: paging}
}

// Normalize fills in the default page, page size and order and caps the
// page size.
func (s *Service) Normalize(q domain.ListQuery, r search.Resource) domain.ListQuery {
	if q.Order == "" {
		q.Order = r.DefaultOrder
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = s.paging.DefaultPerPage
	}
	if q.PerPage > s.paging.MaxPerPage {
		q.PerPage = s.paging.MaxPerPage
	}
	return q
}

func (s *Service) JobRun(ctx context.Context, id int64) (domain.JobRun, error) {
	return s.jobs.GetJobRun(ctx, id)
}

func (s *Service) List(ctx context.Context, q domain.ListQuery) (domain.ListQuery, domain.Page[domain.Report], error) {
	q = s.Normalize(q, search.Reports)
	page, err := s.reports.ListReports(ctx, q)
	return q, page, err
}

// ForJobRun returns the reports of a job run ordered by id. An unknown job
// run is ErrNotFound; a known one without reports is an empty slice.
func (s *Service) ForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error) {
	if _, err := s.jobs.GetJobRun(ctx, jobRunID); err != nil {
		return nil, err
	}
	return s.reports.ReportsForJobRun(ctx, jobRunID)
}

func (s *Service) Show(ctx context.Context, id int64, q domain.ListQuery) (domain.Report, domain.ListQuery, domain.Page[domain.ReportEntry], error) {
	q = s.Normalize(q, search.Entries)
	rep, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return domain.Report{}, q, domain.Page[domain.ReportEntry]{}, err
	}
	page, err := s.reports.ListEntries(ctx, id, q)
	if err != nil {
		return domain.Report{}, q, domain.Page[domain.ReportEntry]{}, err
	}
	return rep, q, page, nil
}

// RemediationDetails returns the detail payloads of the given entries on one
// host. Entries without detail are skipped.
func (s *Service) RemediationDetails(ctx context.Context, reportID int64, entryIDs []int64, hostID int64) ([]domain.Detail, error) {
	if _, err := s.reports.GetReport(ctx, reportID); err != nil {
		return nil, err
	}
	if len(entryIDs) == 0 {
		return []domain.Detail{}, nil
	}
	return s.reports.RemediationDetails(ctx, reportID, entryIDs, hostID)
}
