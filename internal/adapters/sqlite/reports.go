package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
	"preupgrade/internal/search"
)

const reportColumns = `id, job_invocation_id, host_id, hostname, status, created_at`

const entryColumns = `id, preupgrade_report_id, host_id, hostname, title, summary, severity,
	tags, flags, detail, actor, audience, leapp_run_id, entry_key, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func (db *DB) GetJobRun(ctx context.Context, id int64) (domain.JobRun, error) {
	var run domain.JobRun
	err := db.conn.QueryRowContext(ctx, `SELECT id, template_name FROM job_invocations WHERE id = ?`, id).
		Scan(&run.ID, &run.TemplateName)
	if errors.Is(err, sql.ErrNoRows) {
		return run, ports.ErrNotFound
	}
	return run, err
}

func (db *DB) ListReports(ctx context.Context, q domain.ListQuery) (domain.Page[domain.Report], error) {
	var page domain.Page[domain.Report]
	l, err := search.Reports.Compile(q.Search, q.Order)
	if err != nil {
		return page, err
	}
	where := l.And("1 = 1")

	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM preupgrade_reports`).Scan(&page.Total); err != nil {
		return page, err
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM preupgrade_reports WHERE `+where, l.Filter.Args...).Scan(&page.Subtotal); err != nil {
		return page, err
	}

	args := append(l.Filter.Args, q.PerPage, q.Offset())
	rows, err := db.conn.QueryContext(ctx, `SELECT `+reportColumns+` FROM preupgrade_reports WHERE `+where+
		` ORDER BY `+l.OrderBy+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return page, err
	}
	page.Items, err = collect(rows, scanReport)
	return page, err
}

func (db *DB) ReportsForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+reportColumns+` FROM preupgrade_reports WHERE job_invocation_id = ? ORDER BY id`, jobRunID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanReport)
}

func (db *DB) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	r, err := scanReport(db.conn.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM preupgrade_reports WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
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
	where := l.And("preupgrade_report_id = ?")
	args := append([]any{reportID}, l.Filter.Args...)

	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM preupgrade_report_entries WHERE preupgrade_report_id = ?`, reportID).Scan(&page.Total); err != nil {
		return page, err
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM preupgrade_report_entries WHERE `+where, args...).Scan(&page.Subtotal); err != nil {
		return page, err
	}

	args = append(args, q.PerPage, q.Offset())
	rows, err := db.conn.QueryContext(ctx, `SELECT `+entryColumns+` FROM preupgrade_report_entries WHERE `+where+
		` ORDER BY `+l.OrderBy+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return page, err
	}
	page.Items, err = collect(rows, scanEntry)
	return page, err
}

func (db *DB) RemediationDetails(ctx context.Context, reportID int64, entryIDs []int64, hostID int64) ([]domain.Detail, error) {
	if len(entryIDs) == 0 {
		return []domain.Detail{}, nil
	}
	args := []any{reportID, hostID}
	for _, id := range entryIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	rows, err := db.conn.QueryContext(ctx, `
		SELECT detail FROM preupgrade_report_entries
		WHERE preupgrade_report_id = ? AND host_id = ? AND id IN (`+placeholders+`)
		  AND detail IS NOT NULL AND detail <> 'null'
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(s scanner) (domain.Detail, error) {
		var detail string
		err := s.Scan(&detail)
		return domain.Detail(detail), err
	})
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanReport(s scanner) (domain.Report, error) {
	var (
		r       domain.Report
		hostID  sql.NullInt64
		created string
	)
	if err := s.Scan(&r.ID, &r.JobInvocationID, &hostID, &r.Hostname, &r.Status, &created); err != nil {
		return r, err
	}
	if hostID.Valid {
		r.HostID = &hostID.Int64
	}
	r.CreatedAt = parseTimestamp(created)
	return r, nil
}

func scanEntry(s scanner) (domain.ReportEntry, error) {
	var (
		e                 domain.ReportEntry
		severity, created string
		tags, flags       string
		detail            sql.NullString
	)
	err := s.Scan(&e.ID, &e.PreupgradeReportID, &e.HostID, &e.Hostname, &e.Title, &e.Summary, &severity,
		&tags, &flags, &detail, &e.Actor, &e.Audience, &e.LeappRunID, &e.Key, &created)
	if err != nil {
		return e, err
	}
	e.Severity = domain.Severity(severity)
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return e, fmt.Errorf("entry %d tags: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(flags), &e.Flags); err != nil {
		return e, fmt.Errorf("entry %d flags: %w", e.ID, err)
	}
	if detail.Valid && detail.String != "null" {
		e.Detail = domain.Detail(detail.String)
	}
	ts := parseTimestamp(created)
	e.CreatedAt = &ts
	return e, nil
}
