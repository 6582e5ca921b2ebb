package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mscatalog/internal/source"
	healthuc "github.com/kailas-cloud/mscatalog/internal/usecase/health"
	"github.com/kailas-cloud/mscatalog/internal/version"
	"github.com/kailas-cloud/mscatalog/pkg/catalog"
)

const maxBodyBytes = 16 << 20

// Catalog is the slice of *catalog.Client the API serves.
type Catalog interface {
	Query(ctx context.Context, spec *catalog.QuerySpec) (*catalog.Response, error)
	Get(ctx context.Context, params url.Values) (*catalog.Response, error)
	Add(ctx context.Context, docs ...catalog.Document) (*catalog.Response, error)
	DeleteByID(ctx context.Context, id string) (*catalog.Response, error)
	DeleteByIDs(ctx context.Context, ids []string) (*catalog.Response, error)
	DeleteByField(ctx context.Context, f catalog.Field) (*catalog.Response, error)
	Push(
		ctx context.Context, src iter.Seq2[catalog.Document, error], opts ...catalog.PushOption,
	) (*catalog.PushResult, error)
	ClearIndex(ctx context.Context, deleteQuery string) (*catalog.Response, error)
	Checkpoints(ctx context.Context) ([]catalog.Checkpoint, error)
	Checkpoint(ctx context.Context, name string) (catalog.Checkpoint, error)
	DeleteCheckpoint(ctx context.Context, name string) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server is the catalog HTTP API.
type Server struct {
	catalog Catalog
	health  HealthChecker
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(c Catalog, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{catalog: c, health: health, logger: logger}
}

// Register mounts the API routes on r.
func (s *Server) Register(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/query", s.QueryParams)
	r.Post("/query", s.Query)
	r.Get("/select", s.Select)

	r.Post("/documents", s.AddDocuments)
	r.Delete("/documents", s.DeleteByField)
	r.Delete("/documents/{id}", s.DeleteDocument)
	r.Post("/documents/delete", s.DeleteDocuments)

	r.Post("/push", s.Push)
	r.Post("/clear", s.Clear)

	r.Get("/checkpoints", s.ListCheckpoints)
	r.Get("/checkpoints/{name}", s.GetCheckpoint)
	r.Delete("/checkpoints/{name}", s.DeleteCheckpoint)

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, ErrorCodeNotFound, "no route for "+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
}

// Handler returns a router serving the API with no middleware.
func (s *Server) Handler() http.Handler {
	r := gochi.NewRouter()
	s.Register(r)
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.String(),
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	spec, err := specFromRequest(&req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	s.runQuery(w, r, spec)
}

// QueryParams handles GET /query?q=&start=&rows=&fl=name:type.
func (s *Server) QueryParams(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var (
		q     *string
		start *int
		rows  *int
		fl    *[]string
	)
	for _, b := range []struct {
		name string
		dest any
	}{
		{"q", &q}, {"start", &start}, {"rows", &rows}, {"fl", &fl},
	} {
		if err := runtime.BindQueryParameter("form", true, false, b.name, params, b.dest); err != nil {
			WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest,
				fmt.Sprintf("invalid query parameter %s: %v", b.name, err))
			return
		}
	}

	spec := catalog.NewQuerySpec()
	if q != nil {
		spec.SetText(*q)
	}
	if start != nil || rows != nil {
		spec.SetPage(deref(start), deref(rows))
	}
	if fl != nil {
		for _, ref := range *fl {
			f, err := parseFieldRef(ref)
			if err != nil {
				WriteError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
				return
			}
			spec.AddField(f)
		}
	}
	s.runQuery(w, r, spec)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, spec *catalog.QuerySpec) {
	resp, err := s.catalog.Query(r.Context(), spec)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponseFrom(resp))
}

// Select handles GET /select: the query string goes to the engine untouched.
func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	resp, err := s.catalog.Get(r.Context(), r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryResponseFrom(resp))
}

// AddDocuments handles POST /documents.
func (s *Server) AddDocuments(w http.ResponseWriter, r *http.Request) {
	var req AddDocumentsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		WriteError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "documents must not be empty")
		return
	}

	docs := make([]catalog.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		docs = append(docs, d.Document())
	}
	s.writeUpdate(w, r)(s.catalog.Add(r.Context(), docs...))
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	s.writeUpdate(w, r)(s.catalog.DeleteByID(r.Context(), gochi.URLParam(r, "id")))
}

// DeleteDocuments handles POST /documents/delete.
func (s *Server) DeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req DeleteDocumentsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		WriteError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "ids must not be empty")
		return
	}
	s.writeUpdate(w, r)(s.catalog.DeleteByIDs(r.Context(), req.IDs))
}

// DeleteByField handles DELETE /documents?field=&type=&value=.
func (s *Server) DeleteByField(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var name, value string
	var ft *string
	if err := runtime.BindQueryParameter("form", true, true, "field", params, &name); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "value", params, &value); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "type", params, &ft); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	typ := catalog.String
	if ft != nil && *ft != "" {
		typ = catalog.FieldType(*ft)
	}
	f := catalog.NewField(name, value, typ)
	s.writeUpdate(w, r)(s.catalog.DeleteByField(r.Context(), f))
}

// Push handles POST /push with a stream of JSON documents, one per line.
// Query parameters: checkpoint (name), resume (bool), resume_from (source position).
func (s *Server) Push(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var (
		name       *string
		resume     *bool
		resumeFrom *int
	)
	for _, b := range []struct {
		name string
		dest any
	}{
		{"checkpoint", &name}, {"resume", &resume}, {"resume_from", &resumeFrom},
	} {
		if err := runtime.BindQueryParameter("form", true, false, b.name, params, b.dest); err != nil {
			WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest,
				fmt.Sprintf("invalid query parameter %s: %v", b.name, err))
			return
		}
	}

	var opts []catalog.PushOption
	if resumeFrom != nil {
		if *resumeFrom < 0 {
			WriteError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "resume_from must not be negative")
			return
		}
		opts = append(opts, catalog.WithResumeFrom(*resumeFrom))
	}
	if name != nil && *name != "" {
		opts = append(opts, catalog.WithCheckpoint(*name, resume != nil && *resume))
	}

	res, err := s.catalog.Push(r.Context(), source.JSONLines(r.Body), opts...)
	if res == nil {
		if err == nil {
			err = errors.New("push returned no result")
		}
		s.handleDomainError(w, r, err)
		return
	}

	out := pushResponseFrom(res)
	if err != nil {
		status, errResp := classify(err)
		s.log(r).Warn("push stopped", zap.Error(err), zap.Int("committed", res.Committed))
		out.Error = &errResp
		writeJSON(w, status, out)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Clear handles POST /clear. An empty body clears the whole index.
func (s *Server) Clear(w http.ResponseWriter, r *http.Request) {
	var req ClearRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.writeUpdate(w, r)(s.catalog.ClearIndex(r.Context(), req.Query))
}

// ListCheckpoints handles GET /checkpoints.
func (s *Server) ListCheckpoints(w http.ResponseWriter, r *http.Request) {
	cps, err := s.catalog.Checkpoints(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if cps == nil {
		cps = []catalog.Checkpoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": cps})
}

// GetCheckpoint handles GET /checkpoints/{name}.
func (s *Server) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	cp, err := s.catalog.Checkpoint(r.Context(), gochi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

// DeleteCheckpoint handles DELETE /checkpoints/{name}.
func (s *Server) DeleteCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteCheckpoint(r.Context(), gochi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeUpdate returns a sink for the (response, error) pair of an update call.
func (s *Server) writeUpdate(w http.ResponseWriter, r *http.Request) func(*catalog.Response, error) {
	return func(resp *catalog.Response, err error) {
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updateResponseFrom(resp))
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseFieldRef parses a projected field reference "name:type"; the type defaults to string.
func parseFieldRef(ref string) (catalog.Field, error) {
	name, typ, found := strings.Cut(ref, ":")
	if name == "" {
		return catalog.Field{}, fmt.Errorf("empty field reference %q", ref)
	}
	if !found || typ == "" {
		typ = string(catalog.String)
	}
	return catalog.NewField(name, nil, catalog.FieldType(typ)), nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
