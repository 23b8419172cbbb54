package ports

import (
	"context"

	"preupgrade/internal/domain"
)

// Reports serves the read side of the API.
type Reports interface {
	JobRun(ctx context.Context, id int64) (domain.JobRun, error)
	List(ctx context.Context, q domain.ListQuery) (domain.ListQuery, domain.Page[domain.Report], error)
	ForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error)
	Show(ctx context.Context, id int64, q domain.ListQuery) (domain.Report, domain.ListQuery, domain.Page[domain.ReportEntry], error)
	RemediationDetails(ctx context.Context, reportID int64, entryIDs []int64, hostID int64) ([]domain.Detail, error)
}

// Imports accepts leapp report uploads.
type Imports interface {
	Enqueue(ctx context.Context, p ImportPayload) (importID int64, err error)
	Status(ctx context.Context, importID int64) (domain.ReportImport, error)
}
