/*
server.go - HTTP router and middleware configuration

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     Request logging through the application logger
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for dashboards
  6. RateLimit:  Token bucket per client address (disabled when the rate is 0)

ROUTES:
  GET  /api/health
  GET  /api/contracts/{code}
  GET  /api/contracts/{code}/mappings?from=&to=
  POST /api/contracts/{code}/mappings?from=&to=
  GET  /api/reference?date=&granularity=
  GET  /api/labels/{label}?date=&market=&product=
  GET  /api/periods/{id}

SECURITY NOTE:
  No authentication middleware. The API is read-mostly and meant to run behind the internal gateway.
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nholding/tenor/internal/config"
	"github.com/nholding/tenor/internal/logger"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg config.HTTPConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.AllowedOrigins),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User"},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(NewClientRateLimiter(cfg.RateLimit, cfg.RateBurst).Middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/contracts/{code}", func(r chi.Router) {
			r.Get("/", h.GetContract)
			r.Get("/mappings", h.GetMappings)
			r.Post("/mappings", h.RecordMappings)
		})

		r.Get("/reference", h.GetReference)
		r.Get("/labels/{label}", h.GetLabel)
		r.Get("/periods/{id}", h.GetPeriod)
	})

	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:5173", "http://localhost:8080"}
	}
	return origins
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  middleware.GetReqID(r.Context()),
				"remote":      r.RemoteAddr,
			}).Debug("HTTP request")
		})
	}
}
