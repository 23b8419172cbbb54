package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
)

func (db *DB) EnqueueImport(ctx context.Context, p ports.ImportPayload) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO report_imports (job_invocation_id, template_name, host_id, hostname, payload, queued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.JobInvocationID, p.TemplateName, p.HostID, p.Hostname, p.Report, timestamp(db.now()))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ClaimNext marks the oldest queued import running in a single statement;
// SQLite serialises writers so no row locking is needed.
func (db *DB) ClaimNext(ctx context.Context) (ports.ImportJob, bool, error) {
	var job ports.ImportJob
	err := db.conn.QueryRowContext(ctx, `
		UPDATE report_imports SET status = 'running', started_at = ?, attempts = attempts + 1
		WHERE id = (SELECT id FROM report_imports WHERE status = 'queued' ORDER BY queued_at, id LIMIT 1)
		RETURNING id, job_invocation_id
	`, timestamp(db.now())).Scan(&job.ID, &job.JobInvocationID)
	if errors.Is(err, sql.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (db *DB) StartImport(ctx context.Context, importID int64) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE report_imports SET status = 'running', started_at = ?, attempts = attempts + 1
		WHERE id = ? AND status = 'queued'
	`, timestamp(db.now()), importID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := db.ImportStatus(ctx, importID); err != nil {
		return err
	}
	return ports.ErrAlreadyStarted
}

func (db *DB) ReleaseImport(ctx context.Context, importID int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE report_imports SET status = 'queued', started_at = NULL
		WHERE id = ? AND status = 'running'
	`, importID)
	return err
}

func (db *DB) LoadPayload(ctx context.Context, importID int64) (ports.ImportPayload, error) {
	var p ports.ImportPayload
	err := db.conn.QueryRowContext(ctx, `
		SELECT job_invocation_id, template_name, host_id, hostname, payload
		FROM report_imports WHERE id = ?
	`, importID).Scan(&p.JobInvocationID, &p.TemplateName, &p.HostID, &p.Hostname, &p.Report)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ports.ErrNotFound
	}
	return p, err
}

func (db *DB) StoreReport(ctx context.Context, importID int64, r domain.Report, entries []domain.ReportEntry) (reportID int64, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := timestamp(db.now())
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO job_invocations (id, template_name)
		SELECT job_invocation_id, template_name FROM report_imports WHERE id = ?
		ON CONFLICT (id) DO NOTHING
	`, importID); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO preupgrade_reports (job_invocation_id, host_id, hostname, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.JobInvocationID, r.HostID, r.Hostname, r.Status, now)
	if err != nil {
		return 0, err
	}
	if reportID, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO preupgrade_report_entries (preupgrade_report_id, host_id, hostname, title, summary, severity,
			tags, flags, detail, actor, audience, leapp_run_id, entry_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, e := range entries {
		tags, _ := json.Marshal(nonNil(e.Tags))
		flags, _ := json.Marshal(nonNil(e.Flags))
		var detail sql.NullString
		if !e.Detail.IsNull() {
			detail = sql.NullString{String: string(e.Detail), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, reportID, e.HostID, e.Hostname, e.Title, e.Summary, string(e.Severity),
			string(tags), string(flags), detail, e.Actor, e.Audience, e.LeappRunID, e.Key, now); err != nil {
			return 0, err
		}
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE report_imports SET status = 'completed', report_id = ?, error = '', finished_at = ? WHERE id = ?
	`, reportID, now, importID); err != nil {
		return 0, err
	}
	return reportID, nil
}

func (db *DB) MarkFailed(ctx context.Context, importID int64, reason string) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE report_imports SET status = 'failed', error = ?, finished_at = ? WHERE id = ?
	`, reason, timestamp(db.now()), importID)
	return err
}

func (db *DB) ImportStatus(ctx context.Context, importID int64) (domain.ReportImport, error) {
	var (
		imp      domain.ReportImport
		reportID sql.NullInt64
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, job_invocation_id, status, error, report_id FROM report_imports WHERE id = ?
	`, importID).Scan(&imp.ID, &imp.JobInvocationID, &imp.Status, &imp.Error, &reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return imp, ports.ErrNotFound
	}
	if reportID.Valid {
		imp.ReportID = &reportID.Int64
	}
	return imp, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
