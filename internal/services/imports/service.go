package imports

import (
	"context"
	"errors"
	"fmt"

	"preupgrade/internal/domain"
	"preupgrade/internal/leapp"
	"preupgrade/internal/ports"
)

// ErrInvalidPayload is returned for uploads that can never be imported.
var ErrInvalidPayload = errors.New("invalid import payload")

type Service struct {
	jobs    ports.JobRunRepository
	imports ports.ImportRepository
}

func New(jobs ports.JobRunRepository, imports ports.ImportRepository) *Service {
	return &Service{jobs: jobs, imports: imports}
}

// Enqueue validates an upload and queues it for the import workers. The job
// invocation is created on import if it is not known yet.
func (s *Service) Enqueue(ctx context.Context, p ports.ImportPayload) (int64, error) {
	if p.JobInvocationID < 1 {
		return 0, fmt.Errorf("%w: job invocation id is required", ErrInvalidPayload)
	}
	if len(p.Report) == 0 {
		return 0, fmt.Errorf("%w: report is empty", ErrInvalidPayload)
	}
	p.Hostname = leapp.NormalizeHostname(p.Hostname)
	if _, err := leapp.Parse(p.Report, leapp.Host{ID: p.HostID, Hostname: p.Hostname}); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	run, err := s.jobs.GetJobRun(ctx, p.JobInvocationID)
	switch {
	case err == nil:
		p.TemplateName = run.TemplateName
	case errors.Is(err, ports.ErrNotFound):
		if p.TemplateName == "" {
			p.TemplateName = domain.LeappTemplateMarker
		}
	default:
		return 0, err
	}
	return s.imports.EnqueueImport(ctx, p)
}

func (s *Service) Status(ctx context.Context, importID int64) (domain.ReportImport, error) {
	return s.imports.ImportStatus(ctx, importID)
}
