// Package chi exposes the discovery pipeline over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nearby/internal/domain"
	"github.com/kailas-cloud/nearby/internal/domain/category"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/domain/query"
	"github.com/kailas-cloud/nearby/internal/export"
	"github.com/kailas-cloud/nearby/internal/logger"
	"github.com/kailas-cloud/nearby/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/nearby/internal/usecase/health"
)

// Error codes for failures that do not come from the pipeline.
const (
	codeInternal     = "internal"
	codeUnauthorized = "unauthorized"
	codeNotFound     = "not_found"
)

// NoResultsMessage accompanies an empty result set.
const NoResultsMessage = "No results found"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves searches, archived exports and service endpoints.
type Server struct {
	discovery     Discoverer
	archive       Archive
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. archive may be nil to disable downloads.
func NewServer(d Discoverer, archive Archive, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		discovery: d,
		archive:   archive,
		health:    health,
		logger:    logger,
	}
	// Order matters: an UpstreamError matches its Kind before the generic upstream class.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInputInvalid, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusGatewayTimeout),
		sentinelHandler(domain.ErrAuthFailed, http.StatusBadGateway),
		sentinelHandler(domain.ErrUpstreamError, http.StatusBadGateway),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadGateway),
	}
	return s
}

// Mount registers the routes on r.
func (s *Server) Mount(r gochi.Router) {
	r.Get("/search", s.Search)
	r.Get("/exports/{id}.{ext}", s.GetExport)
	r.Get("/categories", s.ListCategories)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type originJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type searchResponse struct {
	SearchID   string            `json:"search_id"`
	Location   string            `json:"location"`
	Category   string            `json:"category"`
	MinRating  float64           `json:"min_rating"`
	Order      string            `json:"order"`
	Provider   string            `json:"provider"`
	Origin     originJSON        `json:"origin"`
	Count      int               `json:"count"`
	Results    []place.Record    `json:"results"`
	Message    string            `json:"message,omitempty"`
	Exports    map[string]string `json:"exports,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

type errorResponse struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

type categoryJSON struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q, format, err := searchParams(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.discovery.Discover(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.Header().Set("X-Search-ID", res.SearchID)

	if format != export.FormatJSON {
		data, err := export.Encode(format, res.Records, res.Origin)
		if err != nil {
			s.handleDomainError(w, r, fmt.Errorf("encode %s: %w", format, err))
			return
		}
		writeFile(w, format, res.SearchID, data)
		return
	}

	resp := searchResponse{
		SearchID:   res.SearchID,
		Location:   q.Location(),
		Category:   string(q.Category()),
		MinRating:  q.MinRating(),
		Order:      string(q.Order()),
		Provider:   res.Provider,
		Origin:     originJSON{Lat: res.Origin.Lat, Lon: res.Origin.Lon},
		Count:      len(res.Records),
		Results:    res.Records,
		DurationMs: res.Duration.Milliseconds(),
	}
	if resp.Results == nil {
		resp.Results = []place.Record{}
	}
	if len(resp.Results) == 0 {
		resp.Message = NoResultsMessage
	}
	if s.archive != nil {
		resp.Exports = s.archiveExports(r.Context(), &res)
	}

	writeJSON(w, http.StatusOK, resp)
}

// archiveExports stores every downloadable rendering and returns the links
// that were stored successfully, keyed by format.
func (s *Server) archiveExports(ctx context.Context, res *discovery.Result) map[string]string {
	log := logger.FromContext(ctx)
	links := make(map[string]string, len(export.Files()))
	for _, f := range export.Files() {
		data, err := export.Encode(f, res.Records, res.Origin)
		if err != nil {
			log.Warn("encode export failed", zap.String("format", string(f)), zap.Error(err))
			continue
		}
		if err := s.archive.Put(ctx, res.SearchID, f, data); err != nil {
			log.Warn("archive export failed", zap.String("format", string(f)), zap.Error(err))
			continue
		}
		links[string(f)] = ExportPath(res.SearchID, f)
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// GetExport handles GET /exports/{id}.{ext}.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "export archive is disabled")
		return
	}

	id := gochi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		s.handleDomainError(w, r, fmt.Errorf("%w: malformed search id %q", domain.ErrInputInvalid, id))
		return
	}
	f, err := export.ParseFormat(gochi.URLParam(r, "ext"))
	if err != nil || f == export.FormatJSON {
		s.handleDomainError(w, r, fmt.Errorf("%w: unsupported export extension %q",
			domain.ErrInputInvalid, gochi.URLParam(r, "ext")))
		return
	}

	data, err := s.archive.Get(r.Context(), id, f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeFile(w, f, id, data)
}

// ListCategories handles GET /categories.
func (s *Server) ListCategories(w http.ResponseWriter, _ *http.Request) {
	all := category.All()
	items := make([]categoryJSON, len(all))
	for i, c := range all {
		items[i] = categoryJSON{ID: string(c), Label: c.Label()}
	}
	writeJSON(w, http.StatusOK, items)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ExportPath returns the download path of an archived export.
func ExportPath(searchID string, f export.Format) string {
	return "/exports/" + searchID + "." + f.Extension()
}

// searchParams parses GET /search parameters. Errors wrap domain.ErrInputInvalid.
func searchParams(v url.Values) (query.Query, export.Format, error) {
	c, err := category.Parse(v.Get("category"))
	if err != nil {
		return query.Query{}, "", fmt.Errorf("%w: %w", domain.ErrInputInvalid, err)
	}

	var minRating float64
	if raw := strings.TrimSpace(v.Get("min_rating")); raw != "" {
		minRating, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return query.Query{}, "", fmt.Errorf("%w: min_rating must be a number, got %q", domain.ErrInputInvalid, raw)
		}
	}

	var limit int
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return query.Query{}, "", fmt.Errorf("%w: limit must be an integer, got %q", domain.ErrInputInvalid, raw)
		}
	}

	format, err := export.ParseFormat(v.Get("format"))
	if err != nil {
		return query.Query{}, "", fmt.Errorf("%w: %w", domain.ErrInputInvalid, err)
	}

	q, err := query.New(v.Get("location"), c, minRating, limit, query.Order(strings.TrimSpace(v.Get("order"))))
	if err != nil {
		return query.Query{}, "", fmt.Errorf("build query: %w", err)
	}
	return q, format, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFile(w http.ResponseWriter, f export.Format, searchID string, data []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "nearby-"+searchID+"."+f.Extension()))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Provider errors are surfaced verbatim, raw response body included.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		resp := errorResponse{
			Code:    domain.ErrorClass(err),
			Message: err.Error(),
		}
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			resp.UpstreamStatus = ue.Status
			resp.UpstreamBody = ue.Body
		}
		writeJSON(w, status, resp)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("request failed", zap.String("error_type", domain.ErrorClass(err)), zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
