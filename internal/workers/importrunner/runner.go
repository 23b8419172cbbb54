package importrunner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"preupgrade/internal/domain"
	"preupgrade/internal/leapp"
	"preupgrade/internal/ports"
)

// Processor performs the import work for a queued upload.
type Processor interface {
	Process(ctx context.Context, importID int64) (reportID int64, err error)
}

// LeappProcessor parses the stored leapp-report.json and writes the report
// and its entries.
type LeappProcessor struct{ Repo ports.ImportRepository }

func (l LeappProcessor) Process(ctx context.Context, importID int64) (int64, error) {
	p, err := l.Repo.LoadPayload(ctx, importID)
	if err != nil {
		return 0, fmt.Errorf("load payload: %w", err)
	}
	parsed, err := leapp.Parse(p.Report, leapp.Host{ID: p.HostID, Hostname: p.Hostname})
	if err != nil {
		return 0, err
	}
	rep := domain.Report{
		JobInvocationID: p.JobInvocationID,
		Hostname:        parsed.Hostname,
		Status:          domain.ReportStatus(parsed.Entries),
	}
	if p.HostID > 0 {
		id := p.HostID
		rep.HostID = &id
	}
	return l.Repo.StoreReport(ctx, importID, rep, parsed.Entries)
}

// Run starts worker goroutines that claim imports and process them. It
// returns once ctx is cancelled and every worker has finished.
func Run(ctx context.Context, repo ports.ImportRepository, processor Processor, concurrency int, pollInterval time.Duration, logger *slog.Logger) {
	if concurrency < 1 {
		return
	}
	jobs := make(chan ports.ImportJob, concurrency)

	// release requeues a claimed import that shutdown kept from finishing.
	release := func(job ports.ImportJob) {
		if err := repo.ReleaseImport(context.WithoutCancel(ctx), job.ID); err != nil {
			logger.Error("release import", "import_id", job.ID, "error", err)
		}
	}

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		defer close(jobs)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						if ctx.Err() == nil {
							logger.Error("claim import", "error", err)
						}
						break
					}
					if !found {
						break
					}
					select {
					case jobs <- job:
					case <-ctx.Done():
						release(job)
						return
					}
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					release(job)
					continue
				}
				reportID, err := processor.Process(ctx, job.ID)
				if err != nil && ctx.Err() != nil {
					release(job)
					continue
				}
				if err != nil {
					if mErr := repo.MarkFailed(context.WithoutCancel(ctx), job.ID, err.Error()); mErr != nil {
						logger.Error("mark import failed", "import_id", job.ID, "error", mErr)
					}
					logger.Warn("import failed", "worker", worker, "import_id", job.ID, "job_invocation_id", job.JobInvocationID, "error", err)
					continue
				}
				logger.Info("import completed", "worker", worker, "import_id", job.ID, "report_id", reportID)
			}
		}(i)
	}
	wg.Wait()
}

// ProcessInline runs one queued import synchronously with the same processor
// the background workers use.
func ProcessInline(ctx context.Context, repo ports.ImportRepository, processor Processor, importID int64) (int64, error) {
	if err := repo.StartImport(ctx, importID); err != nil {
		return 0, err
	}
	reportID, err := processor.Process(ctx, importID)
	if err != nil {
		_ = repo.MarkFailed(context.WithoutCancel(ctx), importID, err.Error())
		return 0, err
	}
	return reportID, nil
}
