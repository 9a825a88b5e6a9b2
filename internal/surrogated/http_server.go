package surrogated

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/simulator"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/config"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/utils"
)

const maxConfigBytes = 1 << 20

// RequestIDHeader is echoed on every response
const RequestIDHeader = "X-Request-ID"

type HTTPServer struct {
	mux      *http.ServeMux
	store    *StudyStore
	Executor *StudyExecutor
	logger   *slog.Logger
}

// NewHTTPServer wires the study API. /metrics is served when gatherer is set.
func NewHTTPServer(store *StudyStore, executor *StudyExecutor, gatherer prometheus.Gatherer, l *slog.Logger) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
		logger:   logger.OrDefault(l),
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/oracles", s.handleOracles)
	s.mux.HandleFunc("/v1/studies", s.handleStudies)
	s.mux.HandleFunc("/v1/studies/", s.handleStudyByID)
	if gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

// Handler returns the API handler. The caller's request id is reused when
// present and a new one generated otherwise.
func (s *HTTPServer) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = utils.GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		start := time.Now()
		s.mux.ServeHTTP(w, r)
		s.logger.Debug("http request", "request_id", id, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *HTTPServer) handleOracles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"oracles": simulator.Names()})
}

// handleStudies handles /v1/studies
func (s *HTTPServer) handleStudies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateStudy(w, r)
	case http.MethodGet:
		s.handleListStudies(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleStudyByID handles /v1/studies/{id}, /v1/studies/{id}:cancel,
// /v1/studies/{id}/report and /v1/studies/{id}/config
func (s *HTTPServer) handleStudyByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/studies/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "study ID is required")
		return
	}

	route := func(suffix, method string, h func(http.ResponseWriter, *http.Request, string)) bool {
		if !strings.HasSuffix(path, suffix) {
			return false
		}
		if r.Method != method {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return true
		}
		h(w, r, strings.TrimSuffix(path, suffix))
		return true
	}

	switch {
	case route(":cancel", http.MethodPost, s.handleCancelStudy):
	case route("/report", http.MethodGet, s.handleGetReport):
	case route("/config", http.MethodGet, s.handleGetConfig):
	case strings.Contains(path, "/"):
		s.writeError(w, http.StatusNotFound, "not found")
	case r.Method == http.MethodGet:
		s.handleGetStudy(w, r, path)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateStudy handles POST /v1/studies. The body is the study
// configuration in YAML or JSON; study_id and callback_url are optional
// query parameters and the callback secret travels in a header.
func (s *HTTPServer) handleCreateStudy(w http.ResponseWriter, r *http.Request) {
	if err := s.Executor.Admit(clientKey(r.RemoteAddr)); err != nil {
		var limited *RateLimitError
		if errors.As(err, &limited) {
			w.Header().Set("Retry-After", strconv.Itoa(limited.RetryAfterSeconds()))
		}
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxConfigBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		s.writeError(w, http.StatusBadRequest, "study configuration is required")
		return
	}
	cfg, err := config.ParseConfigYAML(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	cb := Callback{URL: q.Get("callback_url"), Secret: r.Header.Get(CallbackSecretHeader)}
	rec, err := s.Executor.Submit(q.Get("study_id"), cfg, cb)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}

	s.logger.Info("study created (HTTP)", "study_id", rec.ID)
	s.writeJSON(w, http.StatusCreated, map[string]any{"study": rec})
}

// handleListStudies handles GET /v1/studies with pagination and filtering
func (s *HTTPServer) handleListStudies(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = min(parsed, maxListLimit)
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	status, err := ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	studies := s.store.List(limit, offset, status)
	for i := range studies {
		studies[i].Report = nil
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"studies": studies,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(studies),
		},
	})
}

// handleGetStudy handles GET /v1/studies/{id}
func (s *HTTPServer) handleGetStudy(w http.ResponseWriter, _ *http.Request, id string) {
	rec, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "study not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"study": rec})
}

// handleGetReport handles GET /v1/studies/{id}/report
func (s *HTTPServer) handleGetReport(w http.ResponseWriter, _ *http.Request, id string) {
	rec, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "study not found")
		return
	}
	if rec.Report == nil {
		s.writeError(w, http.StatusPreconditionFailed, "report not available")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"report": rec.Report})
}

// handleGetConfig handles GET /v1/studies/{id}/config, returning the
// defaulted configuration as YAML
func (s *HTTPServer) handleGetConfig(w http.ResponseWriter, _ *http.Request, id string) {
	rec, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "study not found")
		return
	}
	out, err := config.MarshalYAML(rec.Config)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Error("failed to write config", "study_id", id, "error", err)
	}
}

// handleCancelStudy handles POST /v1/studies/{id}:cancel
func (s *HTTPServer) handleCancelStudy(w http.ResponseWriter, _ *http.Request, id string) {
	updated, err := s.Executor.Cancel(id)
	if err != nil {
		s.writeError(w, httpStatusFor(err), err.Error())
		return
	}
	s.logger.Info("study cancelled (HTTP)", "study_id", id)
	s.writeJSON(w, http.StatusOK, map[string]any{"study": updated})
}

func httpStatusFor(err error) int {
	var limited *RateLimitError
	switch {
	case errors.As(err, &limited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrStudyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStudyExists), errors.Is(err, ErrStudyTerminal):
		return http.StatusConflict
	case errors.Is(err, ErrStudyIDMissing), errors.Is(err, ErrInvalidStudyID), errors.Is(err, ErrConfigMissing):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}
