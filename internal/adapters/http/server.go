package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"preupgrade/internal/domain"
	"preupgrade/internal/ports"
	"preupgrade/internal/search"
	importsvc "preupgrade/internal/services/imports"
	"preupgrade/internal/workers/importrunner"
)

// Server serves the preupgrade report API.
type Server struct {
	reports   ports.Reports
	imports   ports.Imports
	jobs      ports.ImportRepository
	processor importrunner.Processor
	logger    *slog.Logger
	auth      map[string]string
}

type Option func(*Server)

// WithBasicAuth protects the /api routes with a single user.
func WithBasicAuth(user, password string) Option {
	return func(s *Server) {
		if user != "" {
			s.auth = map[string]string{user: password}
		}
	}
}

func New(reports ports.Reports, imports ports.Imports, jobs ports.ImportRepository, processor importrunner.Processor, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{reports: reports, imports: imports, jobs: jobs, processor: processor, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Route("/api", func(r chi.Router) {
		if s.auth != nil {
			r.Use(middleware.BasicAuth("preupgrade", s.auth))
		}
		r.Get("/job_invocations/{id}", s.getJobInvocation)
		r.Get("/job_invocations/{id}/preupgrade_reports", s.getJobInvocationReports)
		r.Post("/job_invocations/{id}/preupgrade_reports", s.postJobInvocationReport)
		r.Get("/preupgrade_reports", s.getReports)
		r.Get("/preupgrade_reports/{id}", s.getReport)
		r.Get("/preupgrade_reports/{id}/remediations", s.getRemediations)
		r.Get("/preupgrade_report_imports/{id}", s.getImport)
	})
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getJobInvocation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	run, err := s.reports.JobRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) getJobInvocationReports(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	reps, err := s.reports.ForJobRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportIndex{
		listMeta: listMeta{Total: len(reps), Subtotal: len(reps), Page: 1, PerPage: len(reps), Sort: search.Sort{By: "id", Order: "asc"}},
		Results:  reps,
	})
}

func (s *Server) getReports(w http.ResponseWriter, r *http.Request) {
	q, ok := s.listQuery(w, r)
	if !ok {
		return
	}
	q, page, err := s.reports.List(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportIndex{listMeta: newListMeta(q, page.Total, page.Subtotal), Results: page.Items})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	q, ok := s.listQuery(w, r)
	if !ok {
		return
	}
	rep, q, page, err := s.reports.Show(r.Context(), id, q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportShow{
		Report:   rep,
		listMeta: newListMeta(q, page.Total, page.Subtotal),
		Entries:  page.Items,
	})
}

func (s *Server) getRemediations(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var (
		entryIDs []int64
		hostID   int64
	)
	if err := requiredParam(r, "entry_ids", &entryIDs); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requiredParam(r, "host_id", &hostID); err != nil {
		s.writeError(w, r, err)
		return
	}
	details, err := s.reports.RemediationDetails(r.Context(), id, entryIDs, hostID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": details})
}

// importRequest is the body of an upload. Report is the leapp-report.json
// document as produced by leapp.
type importRequest struct {
	HostID       int64           `json:"host_id"`
	Hostname     string          `json:"hostname"`
	TemplateName string          `json:"template_name"`
	Report       json.RawMessage `json:"report"`
}

func (s *Server) postJobInvocationReport(w http.ResponseWriter, r *http.Request) {
	jobID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	wait, err := queryParam(r, "wait", false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	timeout, err := queryParam(r, "timeout", 30)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var body importRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 32<<20)).Decode(&body); err != nil {
		s.writeError(w, r, &badRequest{msg: "invalid body: " + err.Error()})
		return
	}
	importID, err := s.imports.Enqueue(r.Context(), ports.ImportPayload{
		JobInvocationID: jobID,
		TemplateName:    body.TemplateName,
		HostID:          body.HostID,
		Hostname:        body.Hostname,
		Report:          body.Report,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !wait {
		writeJSON(w, http.StatusAccepted, map[string]int64{"import_id": importID})
		return
	}

	if timeout < 1 {
		timeout = 30
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeout)*time.Second)
	defer cancel()
	reportID, err := importrunner.ProcessInline(ctx, s.jobs, s.processor, importID)
	if errors.Is(err, ports.ErrAlreadyStarted) {
		// a worker claimed it first
		reportID, err = s.awaitImport(ctx, importID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, q, page, err := s.reports.Show(ctx, reportID, domain.ListQuery{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportShow{Report: rep, listMeta: newListMeta(q, page.Total, page.Subtotal), Entries: page.Items})
}

func (s *Server) awaitImport(ctx context.Context, importID int64) (int64, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		imp, err := s.imports.Status(ctx, importID)
		if err != nil {
			return 0, err
		}
		switch imp.Status {
		case domain.ImportCompleted:
			return *imp.ReportID, nil
		case domain.ImportFailed:
			return 0, &unprocessable{msg: "import failed: " + imp.Error}
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Server) getImport(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	imp, err := s.imports.Status(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imp)
}

// errorStatus maps service errors onto HTTP status codes.
func errorStatus(err error) int {
	var (
		br *badRequest
		un *unprocessable
	)
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.As(err, &un),
		errors.Is(err, search.ErrInvalidSearch),
		errors.Is(err, search.ErrInvalidOrder),
		errors.Is(err, importsvc.ErrInvalidPayload):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ports.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ports.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: errorMessage{Message: msg}})
}

type errorBody struct {
	Error errorMessage `json:"error"`
}

type errorMessage struct {
	Message string `json:"message"`
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

type unprocessable struct{ msg string }

func (e *unprocessable) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
