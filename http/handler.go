package http

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/noteapp/noteapp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// APIBackend bundles everything the HTTP layer serves.
type APIBackend struct {
	Logger *zap.Logger

	Authenticator noteapp.Authenticator
	NoteService   noteapp.NoteService
	MediaService  noteapp.MediaService
	AuditService  noteapp.AuditService

	// Signals may be nil, in which case signals are dropped.
	Signals SignalDispatcher

	// Registry may be nil, in which case request metrics are registered on
	// the default prometheus registerer.
	Registry *prometheus.Registry
}

// Handler is the root http handler. Authenticated API routes are mounted
// under /api, operational routes (health, metrics) outside of it.
type Handler struct {
	chi.Router
}

// NewHandler constructs the root handler from the backend services.
func NewHandler(b *APIBackend) *Handler {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	metricsHandler := promhttp.Handler()
	if b.Registry != nil {
		reg = b.Registry
		metricsHandler = promhttp.HandlerFor(b.Registry, promhttp.HandlerOpts{})
	}
	reqMetric, durMetric := NewMetricVectors(reg)

	api := NewAPI(WithLog(log))
	notesHandler := NewNotesHandler(log.With(zap.String("handler", "notes")), b.NoteService, b.AuditService, b.Signals)
	mediaHandler := NewMediaHandler(log.With(zap.String("handler", "media")), b.MediaService, b.AuditService, b.Signals)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
		Metrics("noteapp", reqMetric, durMetric),
	)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(api, b.Authenticator))

		r.Mount(PrefixNotes, notesHandler)
		r.Mount(PrefixPublish, notesHandler.PublishRouter())
		r.Mount(PrefixMigrate, notesHandler.MigrateRouter())
		r.Mount(PrefixMedia, mediaHandler)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Handle("/metrics", metricsHandler)

	return &Handler{Router: r}
}
