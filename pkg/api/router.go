package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/assetstream/internal/logger"
	"github.com/marmos91/assetstream/pkg/api/handlers"
	"github.com/marmos91/assetstream/pkg/registry"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// Routes:
//   - GET    /health                              Liveness probe
//   - GET    /health/ready                        Readiness probe
//   - GET    /health/loader                       Streaming loader stats
//   - GET    /api/v1/libraries                    List library status
//   - GET    /api/v1/libraries/{name}             Library status
//   - POST   /api/v1/libraries/{name}             Register (or replace) from a catalog
//   - DELETE /api/v1/libraries/{name}             Remove and unload
//   - POST   /api/v1/libraries/{name}/sort        Filter and sort
//   - GET    /api/v1/libraries/{name}/ids         Committed sorted ids
//   - PUT    /api/v1/libraries/{name}/buffer      Set the buffer target
func NewRouter(reg *registry.Registry, loader handlers.LoaderStats, cfg APIConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	healthHandler := handlers.NewHealthHandler(reg, loader)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
		r.Get("/loader", healthHandler.Loader)
	})

	if reg != nil {
		libHandler := handlers.NewLibraryHandler(reg, cfg.MaxBodySize.Int64())
		r.Route("/api/v1/libraries", func(r chi.Router) {
			r.Get("/", libHandler.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", libHandler.Get)
				r.Post("/", libHandler.Register)
				r.Delete("/", libHandler.Remove)
				r.Post("/sort", libHandler.Sort)
				r.Get("/ids", libHandler.IDs)
				r.Put("/buffer", libHandler.SetBuffer)
			})
		})
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs requests using the internal logger.
//
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
