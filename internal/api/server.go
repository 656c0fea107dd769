// Package api exposes the analysis service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/business-analyst/internal/analysis"
	"github.com/sells-group/business-analyst/internal/metrics"
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, upload []byte, question string) (*analysis.Result, error)
}

// Options configures the router.
type Options struct {
	AllowedOrigins    []string
	MaxUploadMB       int
	StaticDir         string
	RequestsPerMinute int
}

// Handler serves the HTTP API.
type Handler struct {
	analyzer  Analyzer
	maxUpload int64
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(a Analyzer, opts Options) http.Handler {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 32
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	h := &Handler{analyzer: a, maxUpload: int64(opts.MaxUploadMB) << 20}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(zapLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.With(rateLimit(opts.RequestsPerMinute)).Post("/analyze", h.Analyze)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/ui", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/ui", http.RedirectHandler("/ui/", http.StatusMovedPermanently).ServeHTTP)
		r.Get("/ui/*", fs.ServeHTTP)
	}

	return r
}

// Root reports that the service is up.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "AI Business Analyst API is running"})
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Analyze accepts a multipart upload with a "file" part and an optional
// "question" field.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, http.StatusBadRequest, "Upload exceeds the size limit", "none", start)
			return
		}
		h.fail(w, http.StatusBadRequest, "Expected a multipart form with a file field", "none", start)
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Missing file upload", "none", start)
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "Could not read uploaded file", "none", start)
		return
	}

	res, err := h.analyzer.Analyze(r.Context(), data, strings.TrimSpace(r.FormValue("question")))
	if err != nil {
		var aerr *analysis.Error
		if errors.As(err, &aerr) {
			h.fail(w, aerr.Kind.HTTPStatus(), aerr.Detail, "none", start)
			return
		}
		zap.L().Error("api: analyze failed", zap.Error(err))
		h.fail(w, http.StatusInternalServerError, "Internal server error", "none", start)
		return
	}

	observe(http.StatusOK, string(res.Source), start)
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) fail(w http.ResponseWriter, status int, detail, source string, start time.Time) {
	observe(status, source, start)
	writeJSON(w, status, map[string]string{"detail": detail})
}

func observe(status int, source string, start time.Time) {
	metrics.AnalyzeRequests.WithLabelValues(strconv.Itoa(status), source).Inc()
	metrics.AnalyzeDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}
