package ports

import (
	"context"

	"preupgrade/internal/domain"
)

// JobRunRepository looks up the job runs reports hang off.
type JobRunRepository interface {
	GetJobRun(ctx context.Context, id int64) (domain.JobRun, error)
}

// ReportRepository reads preupgrade reports and their entries. Search and
// Order in a ListQuery are compiled by the repository; invalid expressions
// surface as search.ErrInvalidSearch / search.ErrInvalidOrder.
type ReportRepository interface {
	ListReports(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Report], error)
	ReportsForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error)
	GetReport(ctx context.Context, id int64) (domain.Report, error)
	ListEntries(ctx context.Context, reportID int64, q domain.ListQuery) (domain.Page[domain.ReportEntry], error)
	RemediationDetails(ctx context.Context, reportID int64, entryIDs []int64, hostID int64) ([]domain.Detail, error)
}
