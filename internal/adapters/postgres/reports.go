package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
	"preupgrade/internal/search"
)

const reportColumns = `id, job_invocation_id, host_id, hostname, status, created_at`

const entryColumns = `id, preupgrade_report_id, host_id, hostname, title, summary, severity,
	tags, flags, detail, actor, audience, leapp_run_id, entry_key, created_at`

// JobRunRepository
func (db *DB) GetJobRun(ctx context.Context, id int64) (domain.JobRun, error) {
	var run domain.JobRun
	err := db.Pool.QueryRow(ctx, `SELECT id, template_name FROM job_invocations WHERE id = $1`, id).
		Scan(&run.ID, &run.TemplateName)
	if errors.Is(err, pgx.ErrNoRows) {
		return run, ports.ErrNotFound
	}
	return run, err
}

// ReportRepository
func (db *DB) ListReports(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Report], error) {
	var page domain.Page[domain.Report]
	l, err := search.Reports.Compile(q.Search, q.Order)
	if err != nil {
		return page, err
	}
	where := search.Rebind(l.And("TRUE"), 0)

	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM preupgrade_reports`).Scan(&page.Total); err != nil {
		return page, err
	}
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM preupgrade_reports WHERE `+where, l.Filter.Args...).Scan(&page.Subtotal); err != nil {
		return page, err
	}

	n := len(l.Filter.Args)
	args := append(l.Filter.Args, q.PerPage, q.Offset())
	rows, err := db.Pool.Query(ctx, `SELECT `+reportColumns+` FROM preupgrade_reports WHERE `+where+
		` ORDER BY `+l.OrderBy+` LIMIT `+search.Rebind("? OFFSET ?", n), args...)
	if err != nil {
		return page, err
	}
	page.Items, err = pgx.CollectRows(rows, scanReport)
	return page, err
}

func (db *DB) ReportsForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+reportColumns+` FROM preupgrade_reports WHERE job_invocation_id = $1 ORDER BY id`, jobRunID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanReport)
}

func (db *DB) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+reportColumns+` FROM preupgrade_reports WHERE id = $1`, id)
	if err != nil {
		return domain.Report{}, err
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanReport)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ports.ErrNotFound
	}
	return r, err
}

func (db *DB) ListEntries(ctx context.Context, reportID int64, q domain.ListQuery) (domain.Page[domain.ReportEntry], error) {
	var page domain.Page[domain.ReportEntry]
	l, err := search.Entries.Compile(q.Search, q.Order)
	if err != nil {
		return page, err
	}
	where := search.Rebind(l.And("preupgrade_report_id = ?"), 0)
	args := append([]any{reportID}, l.Filter.Args...)

	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM preupgrade_report_entries WHERE preupgrade_report_id = $1`, reportID).Scan(&page.Total); err != nil {
		return page, err
	}
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM preupgrade_report_entries WHERE `+where, args...).Scan(&page.Subtotal); err != nil {
		return page, err
	}

	n := len(args)
	args = append(args, q.PerPage, q.Offset())
	rows, err := db.Pool.Query(ctx, `SELECT `+entryColumns+` FROM preupgrade_report_entries WHERE `+where+
		` ORDER BY `+l.OrderBy+` LIMIT `+search.Rebind("? OFFSET ?", n), args...)
	if err != nil {
		return page, err
	}
	page.Items, err = pgx.CollectRows(rows, scanEntry)
	return page, err
}

func (db *DB) RemediationDetails(ctx context.Context, reportID int64, entryIDs []int64, hostID int64) ([]domain.Detail, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT detail FROM preupgrade_report_entries
		WHERE preupgrade_report_id = $1 AND host_id = $2 AND id = ANY($3)
		  AND detail IS NOT NULL AND detail <> 'null'::jsonb
		ORDER BY id
	`, reportID, hostID, entryIDs)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Detail, error) {
		var b []byte
		err := row.Scan(&b)
		return domain.Detail(b), err
	})
}

func scanReport(row pgx.CollectableRow) (domain.Report, error) {
	var r domain.Report
	err := row.Scan(&r.ID, &r.JobInvocationID, &r.HostID, &r.Hostname, &r.Status, &r.CreatedAt)
	return r, err
}

func scanEntry(row pgx.CollectableRow) (domain.ReportEntry, error) {
	var (
		e       domain.ReportEntry
		detail  []byte
		created = new(time.Time)
	)
	err := row.Scan(&e.ID, &e.PreupgradeReportID, &e.HostID, &e.Hostname, &e.Title, &e.Summary, &e.Severity,
		&e.Tags, &e.Flags, &detail, &e.Actor, &e.Audience, &e.LeappRunID, &e.Key, created)
	if len(detail) > 0 {
		e.Detail = domain.Detail(detail)
	}
	e.CreatedAt = created
	return e, err
}
