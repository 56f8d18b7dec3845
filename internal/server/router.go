package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/joseph-ayodele/catalog-importer/internal/common"
	"github.com/joseph-ayodele/catalog-importer/internal/entity"
	"github.com/joseph-ayodele/catalog-importer/internal/services/extraction"
)

// ExtractionService is the application surface the handlers call.
type ExtractionService interface {
	SubmitUploads(ctx context.Context, uploads []extraction.Upload) (*entity.ExtractionJob, error)
	GetJob(ctx context.Context, jobID string) (*entity.ExtractionJob, error)
	GetResults(ctx context.Context, jobID string) ([]entity.ProductRecord, error)
	ExportXLSX(ctx context.Context, jobID string) ([]byte, error)
	Confirm(ctx context.Context, jobID string, req extraction.ConfirmRequest) (entity.ImportOutcome, error)
}

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64 // whole request body; 0 = unlimited
	Health         HealthFunc
}

// Handlers serves the extraction HTTP API.
type Handlers struct {
	svc    ExtractionService
	opts   Options
	logger *slog.Logger
}

func NewHandlers(svc ExtractionService, opts Options, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Handlers{svc: svc, opts: opts, logger: logger}
}

// Routes builds the router.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1/extractions", func(r chi.Router) {
		r.Post("/", h.SubmitExtraction)
		r.Route("/{jobID}", func(r chi.Router) {
			r.Get("/", h.GetJob)
			r.Get("/results", h.GetResults)
			r.Get("/export.xlsx", h.ExportXLSX)
			r.Post("/confirm", h.Confirm)
		})
	})
	return r
}

func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		r = r.WithContext(common.WithRequestID(r.Context(), reqID))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", reqID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}
