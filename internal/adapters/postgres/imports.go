package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
)

func (db *DB) EnqueueImport(ctx context.Context, p ports.ImportPayload) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO report_imports (job_invocation_id, template_name, host_id, hostname, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.JobInvocationID, p.TemplateName, p.HostID, p.Hostname, p.Report).Scan(&id)
	return id, err
}

// ClaimNext selects the next queued import using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.ImportJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		SELECT id, job_invocation_id FROM report_imports
		WHERE status = 'queued'
		ORDER BY queued_at
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&job.ID, &job.JobInvocationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE report_imports SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
	`, job.ID); err != nil {
		return job, false, err
	}
	return job, true, nil
}

// StartImport marks a specific queued import as running.
func (db *DB) StartImport(ctx context.Context, importID int64) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE report_imports SET status='running', started_at=now(), attempts=attempts+1
		WHERE id=$1 AND status='queued'
	`, importID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := db.ImportStatus(ctx, importID); err != nil {
		return err
	}
	return ports.ErrAlreadyStarted
}

// ReleaseImport puts a running import back in the queue.
func (db *DB) ReleaseImport(ctx context.Context, importID int64) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE report_imports SET status='queued', started_at=NULL
		WHERE id=$1 AND status='running'
	`, importID)
	return err
}

func (db *DB) LoadPayload(ctx context.Context, importID int64) (ports.ImportPayload, error) {
	var p ports.ImportPayload
	err := db.Pool.QueryRow(ctx, `
		SELECT job_invocation_id, template_name, host_id, hostname, payload
		FROM report_imports WHERE id = $1
	`, importID).Scan(&p.JobInvocationID, &p.TemplateName, &p.HostID, &p.Hostname, &p.Report)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ports.ErrNotFound
	}
	return p, err
}

func (db *DB) StoreReport(ctx context.Context, importID int64, r domain.Report, entries []domain.ReportEntry) (reportID int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO job_invocations (id, template_name)
		SELECT job_invocation_id, template_name FROM report_imports WHERE id = $1
		ON CONFLICT (id) DO NOTHING
	`, importID); err != nil {
		return 0, err
	}
	if err = tx.QueryRow(ctx, `
		INSERT INTO preupgrade_reports (job_invocation_id, host_id, hostname, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, r.JobInvocationID, r.HostID, r.Hostname, r.Status).Scan(&reportID); err != nil {
		return 0, err
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"preupgrade_report_entries"},
		[]string{"preupgrade_report_id", "host_id", "hostname", "title", "summary", "severity",
			"tags", "flags", "detail", "actor", "audience", "leapp_run_id", "entry_key"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			e := entries[i]
			var detail []byte
			if !e.Detail.IsNull() {
				detail = []byte(e.Detail)
			}
			return []any{reportID, e.HostID, e.Hostname, e.Title, e.Summary, string(e.Severity),
				e.Tags, e.Flags, detail, e.Actor, e.Audience, e.LeappRunID, e.Key}, nil
		}),
	)
	if err != nil {
		return 0, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE report_imports SET status='completed', report_id=$2, error='', finished_at=now() WHERE id=$1
	`, importID, reportID); err != nil {
		return 0, err
	}
	return reportID, nil
}

func (db *DB) MarkFailed(ctx context.Context, importID int64, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := db.Pool.Exec(ctx, `
		UPDATE report_imports SET status='failed', error=$2, finished_at=now() WHERE id=$1
	`, importID, reason)
	return err
}

func (db *DB) ImportStatus(ctx context.Context, importID int64) (domain.ReportImport, error) {
	var imp domain.ReportImport
	err := db.Pool.QueryRow(ctx, `
		SELECT id, job_invocation_id, status, error, report_id FROM report_imports WHERE id = $1
	`, importID).Scan(&imp.ID, &imp.JobInvocationID, &imp.Status, &imp.Error, &imp.ReportID)
	if errors.Is(err, pgx.ErrNoRows) {
		return imp, ports.ErrNotFound
	}
	return imp, err
}
