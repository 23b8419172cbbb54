package ports

import (
	"context"

	"preupgrade/internal/domain"
)

type ImportJob struct {
	ID              int64
	JobInvocationID int64
}

// ImportPayload is what an import job carries from the upload to the worker.
type ImportPayload struct {
	JobInvocationID int64
	TemplateName    string
	HostID          int64
	Hostname        string
	Report          []byte // raw leapp-report.json
}

// ImportRepository queues leapp report uploads and stores the parsed result.
type ImportRepository interface {
	EnqueueImport(ctx context.Context, p ImportPayload) (importID int64, err error)
	ClaimNext(ctx context.Context) (job ImportJob, found bool, err error)
	// StartImport moves a queued import to running, or returns ErrAlreadyStarted.
	StartImport(ctx context.Context, importID int64) error
	// ReleaseImport returns a running import to the queue.
	ReleaseImport(ctx context.Context, importID int64) error
	LoadPayload(ctx context.Context, importID int64) (ImportPayload, error)
	// StoreReport writes the report and its entries and completes the import in
	// one transaction.
	StoreReport(ctx context.Context, importID int64, r domain.Report, entries []domain.ReportEntry) (reportID int64, err error)
	MarkFailed(ctx context.Context, importID int64, reason string) error
	ImportStatus(ctx context.Context, importID int64) (domain.ReportImport, error)
}
