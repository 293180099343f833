package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/foundry/mavenrepo/internal/core/models"
	"github.com/foundry/mavenrepo/internal/core/repository"
	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/maven"
	"github.com/foundry/mavenrepo/internal/util/logging"
	"github.com/foundry/mavenrepo/internal/util/metrics"
)

// Options tunes the HTTP layer.
type Options struct {
	// MaxUploadBytes caps request bodies on publish routes. Zero means no cap.
	MaxUploadBytes int64
	// CacheMaxAge is sent as Cache-Control max-age on file passthrough.
	CacheMaxAge time.Duration
	// Metrics enables request metrics and the scrape endpoint when set.
	Metrics     *metrics.Prom
	MetricsPath string
}

// Handler holds all HTTP handlers and their dependencies.
type Handler struct {
	catalogs  repository.Catalogs
	publisher *repository.Publisher
	purger    *repository.Purger
	auth      services.Authenticator
	logger    zerolog.Logger
	opts      Options
}

// New creates a new Handler with the given dependencies.
func New(catalogs repository.Catalogs, publisher *repository.Publisher, purger *repository.Purger, auth services.Authenticator, logger zerolog.Logger, opts Options) *Handler {
	if opts.CacheMaxAge == 0 {
		opts.CacheMaxAge = time.Hour
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	return &Handler{
		catalogs:  catalogs,
		publisher: publisher,
		purger:    purger,
		auth:      auth,
		logger:    logger,
		opts:      opts,
	}
}

// Router returns the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestIDMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.corsMiddleware)

	r.Get("/health", h.Health)
	if h.opts.Metrics != nil {
		r.Method(http.MethodGet, h.opts.MetricsPath, h.opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/groups", h.ListGroups)
		r.Get("/artifacts", h.ListArtifacts)
		r.Get("/versions", h.ListVersions)
		r.Get("/files", h.ListFiles)
		r.Get("/latest", h.Latest)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/publish/release", h.PublishRelease)
			r.Post("/publish/snapshot", h.PublishSnapshot)
			r.Delete("/purge", h.Purge)
		})

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeAPIError(w, http.StatusNotFound, "route not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		})
	})

	for _, repo := range maven.Repositories {
		pattern := "/" + string(repo) + "/*"
		r.Get(pattern, h.ServeFile)
		r.Head(pattern, h.ServeFile)
		r.With(h.requireAuth).Put(pattern, h.UploadFile)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps an error to its HTTP status and the message safe to show
// to the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrMalformedPath),
		errors.Is(err, services.ErrUnsupportedFileType),
		errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrNotDeterminable):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, services.ErrPreconditionFailed):
		return http.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidMetadata):
		return http.StatusInternalServerError, "invalid metadata"
	}
	return http.StatusInternalServerError, "internal error"
}

// fail writes err in the shape expected by the route: the JSON envelope on
// /api, plain text elsewhere. Server errors are logged with their detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("request_id", logging.RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	if isAPIPath(r.URL.Path) {
		writeAPIError(w, status, msg)
		return
	}
	writeText(w, status, msg)
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, models.Envelope{Data: data})
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.Envelope{Error: &msg})
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg + "\n"))
}
