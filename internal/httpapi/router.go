// Package httpapi exposes the review service over REST: chi routing, bearer
// JWT authorization, request logging and the error body contract.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/goliatone/go-product-reviews/pkg/config"
)

// Router assembles middleware and routes for the service.
type Router struct {
	svc    ReviewService
	cfg    *config.Config
	logger *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(svc ReviewService, cfg *config.Config, logger *zap.Logger) *Router {
	return &Router{svc: svc, cfg: cfg, logger: logger}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(RequestLogger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := NewReviewHandler(rt.svc, rt.logger)

	router.Route("/api/reviews", func(r chi.Router) {
		r.Use(Authenticate(rt.cfg.JWTSecret, rt.cfg.JWTIssuer, rt.logger))

		r.Get("/", handler.GetAll)
		r.Get("/visible", handler.GetVisible)
		r.Get("/{id}", handler.GetByID)
		r.Post("/create", handler.Create)
		r.Patch("/visibility/{id}", handler.UpdateVisibility)
	})

	return router
}
