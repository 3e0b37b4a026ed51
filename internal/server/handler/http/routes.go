// Package http provides HTTP routing and middleware configuration
// for the companion server.
package http

import (
	"net/http"

	"github.com/liamcryan/ieuler/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// companion server API.
//
// Routes:
//
//	GET  /              → ProblemsHandler.Ping (public liveness probe)
//	GET  /api/problems  → ProblemsHandler.Get  (basic-cookie auth)
//	POST /api/problems  → ProblemsHandler.Post (basic-cookie auth, JSON only)
func NewRouter(problemsHandler *ProblemsHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/", problemsHandler.Ping)

	r.Route("/api", func(r chi.Router) {
		// All API endpoints require the cookie-backed basic auth
		r.Use(middleware.BasicCookieAuth)

		r.Get("/problems", problemsHandler.Get)

		r.Group(func(r chi.Router) {
			// Only allow pushes with Content-Type: application/json
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/problems", problemsHandler.Post)
		})
	})

	return r
}
