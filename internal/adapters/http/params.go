package httpadapter

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"preupgrade/internal/domain"
	"preupgrade/internal/search"
)

// listMeta is the paging block shared by every listing response.
type listMeta struct {
	Total    int         `json:"total"`
	Subtotal int         `json:"subtotal"`
	Page     int         `json:"page"`
	PerPage  int         `json:"per_page"`
	Search   string      `json:"search"`
	Sort     search.Sort `json:"sort"`
}

func newListMeta(q domain.ListQuery, total, subtotal int) listMeta {
	s, _ := search.ParseSort(q.Order)
	return listMeta{Total: total, Subtotal: subtotal, Page: q.Page, PerPage: q.PerPage, Search: q.Search, Sort: s}
}

type reportIndex struct {
	listMeta
	Results []domain.Report `json:"results"`
}

type reportShow struct {
	domain.Report
	listMeta
	Entries []domain.ReportEntry `json:"preupgrade_report_entries"`
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		s.writeError(w, r, &badRequest{msg: err.Error()})
		return 0, false
	}
	return id, true
}

func (s *Server) listQuery(w http.ResponseWriter, r *http.Request) (domain.ListQuery, bool) {
	q, err := parseListQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return q, false
	}
	return q, true
}

func parseListQuery(r *http.Request) (q domain.ListQuery, err error) {
	if q.Search, err = queryParam(r, "search", ""); err != nil {
		return q, err
	}
	if q.Order, err = queryParam(r, "order", ""); err != nil {
		return q, err
	}
	if q.Page, err = queryParam(r, "page", 0); err != nil {
		return q, err
	}
	q.PerPage, err = queryParam(r, "per_page", 0)
	return q, err
}

// queryParam binds an optional form-style query parameter, returning def
// when it is absent.
func queryParam[T any](r *http.Request, name string, def T) (T, error) {
	var v *T
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return def, &badRequest{msg: err.Error()}
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

// requiredParam binds a required query parameter; lists are comma separated.
func requiredParam(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", false, true, name, r.URL.Query(), dest); err != nil {
		return &badRequest{msg: err.Error()}
	}
	return nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
