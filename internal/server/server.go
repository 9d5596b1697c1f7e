package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hongminglow/videotube-be/internal/config"
	"github.com/hongminglow/videotube-be/internal/http/handlers"
	"github.com/hongminglow/videotube-be/internal/metrics"
	"github.com/hongminglow/videotube-be/internal/middleware"
)

// Deps are the collaborators the routes need.
type Deps struct {
	Registrar handlers.Registrar
	// DB is pinged by /health; nil skips the check.
	DB       handlers.Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// StaticDir, when set, is served under /static/ for locally stored assets.
	StaticDir string
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler builds the routed handler tree.
func Handler(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, middleware.Logging(deps.Logger), chimw.Recoverer)

	handlers.NewHealthHandler(time.Now(), deps.DB).Register(r)
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	users := handlers.NewUserHandler(deps.Registrar, handlers.UploadOptions{
		TempDir:  cfg.Uploads.TempDir,
		MaxBytes: cfg.MaxUploadBytes(),
	}, deps.Metrics, deps.Logger)
	r.Route("/api/v1/users", users.Register)

	if deps.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	}

	return middleware.CORS(cfg.CORSOrigins, r)
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
