package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"preupgrade/internal/adapters/sqlite"
	importsvc "preupgrade/internal/services/imports"
	reportsvc "preupgrade/internal/services/reports"
	"preupgrade/internal/workers/importrunner"
)

const leappReport = `{"leapp_run_id":"run-1","entries":[
 {"title":"Removed kernel drivers","severity":"high","actor":"kernel","audience":"sysadmin","groups":["inhibitor"],
  "detail":{"remediations":[{"type":"hint","context":"unload them"}]}},
 {"title":"Deprecated packages","severity":"medium","actor":"rpm","audience":"sysadmin","hostname":"other.example.com"},
 {"title":"Informational notice","severity":"info","actor":"misc","audience":"developer"}]}`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("sqlite.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reports := reportsvc.New(db, db, reportsvc.Paging{DefaultPerPage: 20, MaxPerPage: 1000})
	imports := importsvc.New(db, db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(reports, imports, db, importrunner.LeappProcessor{Repo: db}, logger, opts...)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func importReport(t *testing.T, ts *httptest.Server, jobID string, wait bool) *http.Response {
	t.Helper()
	body := `{"host_id":3,"hostname":"Web01.Example.com","report":` + leappReport + `}`
	url := ts.URL + "/api/job_invocations/" + jobID + "/preupgrade_reports"
	if wait {
		url += "?wait=true&timeout=10"
	}
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST import: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s status = %d, want %d: %s", url, resp.StatusCode, wantStatus, b)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

type showBody struct {
	ID       int64  `json:"id"`
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
	Total    int    `json:"total"`
	Subtotal int    `json:"subtotal"`
	Page     int    `json:"page"`
	PerPage  int    `json:"per_page"`
	Search   string `json:"search"`
	Sort     struct {
		By    string `json:"by"`
		Order string `json:"order"`
	} `json:"sort"`
	Entries []struct {
		ID       int64    `json:"id"`
		Title    string   `json:"title"`
		Hostname string   `json:"hostname"`
		Severity string   `json:"severity"`
		Flags    []string `json:"flags"`
	} `json:"preupgrade_report_entries"`
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	getJSON(t, ts.URL+"/healthz", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestImportAndShow(t *testing.T) {
	ts := newTestServer(t)

	resp := importReport(t, ts, "7", true)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("import status = %d: %s", resp.StatusCode, b)
	}
	var created showBody
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "inhibited" || created.Hostname != "web01.example.com" || len(created.Entries) != 3 {
		t.Fatalf("created = %+v", created)
	}
	if created.Entries[0].Severity != "high" || created.Entries[0].Flags[0] != "inhibitor" {
		t.Errorf("first entry = %+v, want the high inhibitor first", created.Entries[0])
	}

	var run struct {
		ID           int64  `json:"id"`
		TemplateName string `json:"template_name"`
	}
	getJSON(t, ts.URL+"/api/job_invocations/7", http.StatusOK, &run)
	if run.ID != 7 || !strings.Contains(run.TemplateName, "Run preupgrade via Leapp") {
		t.Errorf("job invocation = %+v", run)
	}

	var index struct {
		Total   int `json:"total"`
		Results []struct {
			ID int64 `json:"id"`
		} `json:"results"`
	}
	getJSON(t, ts.URL+"/api/job_invocations/7/preupgrade_reports", http.StatusOK, &index)
	if index.Total != 1 || len(index.Results) != 1 || index.Results[0].ID != created.ID {
		t.Errorf("job reports = %+v", index)
	}

	var page showBody
	getJSON(t, ts.URL+"/api/preupgrade_reports/1?order=title+asc&page=1&per_page=1&search=severity+%21%3D+info", http.StatusOK, &page)
	if page.Total != 3 || page.Subtotal != 2 || page.PerPage != 1 || len(page.Entries) != 1 {
		t.Errorf("page meta = %+v", page)
	}
	if page.Sort.By != "title" || page.Sort.Order != "asc" || page.Search != "severity != info" {
		t.Errorf("echo = %+v / %q", page.Sort, page.Search)
	}
	if page.Entries[0].Title != "Deprecated packages" || page.Entries[0].Hostname != "other.example.com" {
		t.Errorf("entry = %+v", page.Entries[0])
	}

	var all struct {
		Total   int `json:"total"`
		PerPage int `json:"per_page"`
	}
	getJSON(t, ts.URL+"/api/preupgrade_reports?per_page=5000", http.StatusOK, &all)
	if all.Total != 1 || all.PerPage != 1000 {
		t.Errorf("reports index = %+v", all)
	}

	var rem struct {
		Results []json.RawMessage `json:"results"`
	}
	getJSON(t, ts.URL+"/api/preupgrade_reports/1/remediations?entry_ids=1,2,3&host_id=3", http.StatusOK, &rem)
	if len(rem.Results) != 1 || !strings.Contains(string(rem.Results[0]), "unload them") {
		t.Errorf("remediations = %s", rem.Results)
	}
}

func TestQueuedImport(t *testing.T) {
	ts := newTestServer(t)

	resp := importReport(t, ts, "9", false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var accepted struct {
		ImportID int64 `json:"import_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil || accepted.ImportID == 0 {
		t.Fatalf("accepted = %+v, %v", accepted, err)
	}

	var imp struct {
		Status   string `json:"status"`
		ReportID *int64 `json:"report_id"`
	}
	getJSON(t, ts.URL+"/api/preupgrade_report_imports/1", http.StatusOK, &imp)
	if imp.Status != "queued" || imp.ReportID != nil {
		t.Errorf("import = %+v, want queued", imp)
	}

	// the job invocation only exists once a report has been stored
	getJSON(t, ts.URL+"/api/job_invocations/9", http.StatusNotFound, nil)
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	resp := importReport(t, ts, "7", true)
	resp.Body.Close()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown report", "/api/preupgrade_reports/99", http.StatusNotFound},
		{"unknown job", "/api/job_invocations/99/preupgrade_reports", http.StatusNotFound},
		{"bad id", "/api/preupgrade_reports/abc", http.StatusBadRequest},
		{"bad page", "/api/preupgrade_reports/1?page=x", http.StatusBadRequest},
		{"invalid search", "/api/preupgrade_reports/1?search=actor+%3D+x", http.StatusUnprocessableEntity},
		{"invalid order", "/api/preupgrade_reports/1?order=inhibitor+asc", http.StatusUnprocessableEntity},
		{"missing host", "/api/preupgrade_reports/1/remediations?entry_ids=1", http.StatusBadRequest},
		{"unknown import", "/api/preupgrade_report_imports/5", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			getJSON(t, ts.URL+tt.path, tt.status, &body)
			if body.Error.Message == "" {
				t.Error("error message is empty")
			}
		})
	}
}

func TestInvalidUpload(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/job_invocations/7/preupgrade_reports", "application/json",
		strings.NewReader(`{"hostname":"h","report":{"entries":[{"title":"x"}]}}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t, WithBasicAuth("admin", "secret"))

	getJSON(t, ts.URL+"/healthz", http.StatusOK, nil)
	getJSON(t, ts.URL+"/api/preupgrade_reports", http.StatusUnauthorized, nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/preupgrade_reports", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authorised status = %d, want 200", resp.StatusCode)
	}
}
