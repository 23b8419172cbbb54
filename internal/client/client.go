// Package client talks to the preupgrade report API. It is the viewer's
// remote Source.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"preupgrade/internal/domain"
	"preupgrade/internal/reportview"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	base     *url.URL
	http     *http.Client
	user     string
	password string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithBasicAuth(user, password string) Option {
	return func(c *Client) { c.user, c.password = user, password }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("server url is not configured")
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

var _ reportview.Source = (*Client)(nil)

// Index is the listing envelope shared by the index endpoints.
type Index[T any] struct {
	Total    int    `json:"total"`
	Subtotal int    `json:"subtotal"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	Search   string `json:"search"`
	Sort     struct {
		By    string `json:"by"`
		Order string `json:"order"`
	} `json:"sort"`
	Results []T `json:"results"`
}

type reportShow struct {
	domain.Report
	Total    int                  `json:"total"`
	Subtotal int                  `json:"subtotal"`
	Page     int                  `json:"page"`
	PerPage  int                  `json:"per_page"`
	Entries  []domain.ReportEntry `json:"preupgrade_report_entries"`
}

func (s reportShow) page() reportview.ReportPage {
	return reportview.ReportPage{
		Report:   s.Report,
		Entries:  s.Entries,
		Total:    s.Total,
		Subtotal: s.Subtotal,
		Page:     s.Page,
		PerPage:  s.PerPage,
	}
}

func (c *Client) JobRun(ctx context.Context, id int64) (domain.JobRun, error) {
	var run domain.JobRun
	err := c.do(ctx, http.MethodGet, "/api/job_invocations/"+strconv.FormatInt(id, 10), nil, nil, &run)
	return run, err
}

// ReportsForJobRun returns the reports of a job run ordered by id.
func (c *Client) ReportsForJobRun(ctx context.Context, jobRunID int64) ([]domain.Report, error) {
	var idx Index[domain.Report]
	if err := c.do(ctx, http.MethodGet, "/api/job_invocations/"+strconv.FormatInt(jobRunID, 10)+"/preupgrade_reports", nil, nil, &idx); err != nil {
		return nil, err
	}
	return idx.Results, nil
}

// ReportPage fetches a report with one page of its entries.
func (c *Client) ReportPage(ctx context.Context, reportID int64, q reportview.ServerQuery) (reportview.ReportPage, error) {
	var show reportShow
	if err := c.do(ctx, http.MethodGet, "/api/preupgrade_reports/"+strconv.FormatInt(reportID, 10), q.Values(), nil, &show); err != nil {
		return reportview.ReportPage{}, err
	}
	return show.page(), nil
}

func (c *Client) ListReports(ctx context.Context, q domain.ListQuery) (Index[domain.Report], error) {
	var idx Index[domain.Report]
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	err := c.do(ctx, http.MethodGet, "/api/preupgrade_reports", v, nil, &idx)
	return idx, err
}

// RemediationDetails returns the non-null detail payloads of entries on a host.
func (c *Client) RemediationDetails(ctx context.Context, reportID int64, entryIDs []int64, hostID int64) ([]domain.Detail, error) {
	ids, err := runtime.StyleParamWithLocation("form", false, "entry_ids", runtime.ParamLocationQuery, entryIDs)
	if err != nil {
		return nil, err
	}
	host, err := runtime.StyleParamWithLocation("form", true, "host_id", runtime.ParamLocationQuery, hostID)
	if err != nil {
		return nil, err
	}
	v, err := url.ParseQuery(ids + "&" + host)
	if err != nil {
		return nil, err
	}
	var out struct {
		Results []domain.Detail `json:"results"`
	}
	err = c.do(ctx, http.MethodGet, "/api/preupgrade_reports/"+strconv.FormatInt(reportID, 10)+"/remediations", v, nil, &out)
	return out.Results, err
}

// ImportRequest uploads a leapp-report.json for a host of a job run.
type ImportRequest struct {
	HostID       int64           `json:"host_id"`
	Hostname     string          `json:"hostname"`
	TemplateName string          `json:"template_name,omitempty"`
	Report       json.RawMessage `json:"report"`
}

// ImportResult carries the queued import id, or the stored report when the
// upload was processed inline.
type ImportResult struct {
	ImportID int64
	Report   *reportview.ReportPage
}

func (c *Client) Import(ctx context.Context, jobRunID int64, req ImportRequest, wait bool) (ImportResult, error) {
	var v url.Values
	if wait {
		v = url.Values{"wait": {"true"}}
	}
	path := "/api/job_invocations/" + strconv.FormatInt(jobRunID, 10) + "/preupgrade_reports"

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, v, req, &raw); err != nil {
		return ImportResult{}, err
	}
	if !wait {
		var accepted struct {
			ImportID int64 `json:"import_id"`
		}
		err := json.Unmarshal(raw, &accepted)
		return ImportResult{ImportID: accepted.ImportID}, err
	}
	var show reportShow
	if err := json.Unmarshal(raw, &show); err != nil {
		return ImportResult{}, err
	}
	page := show.page()
	return ImportResult{Report: &page}, nil
}

func (c *Client) ImportStatus(ctx context.Context, importID int64) (domain.ReportImport, error) {
	var imp domain.ReportImport
	err := c.do(ctx, http.MethodGet, "/api/preupgrade_report_imports/"+strconv.FormatInt(importID, 10), nil, nil, &imp)
	return imp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(b, &eb) == nil {
			apiErr.Message = eb.Error.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
