package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kovalenq/pressroom/internal/api/middleware"
	"github.com/kovalenq/pressroom/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler       http.HandlerFunc
	SubmitReportHandler http.HandlerFunc
	PollReportHandler   http.HandlerFunc
	GenerateHandler     http.HandlerFunc
	ListSessionHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Rate-limited routes
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/reports", orNotImplemented(deps.SubmitReportHandler))
		r.Get("/api/v1/reports/{jobID}", orNotImplemented(deps.PollReportHandler))

		r.Post("/api/v1/generate", orNotImplemented(deps.GenerateHandler))
		r.Get("/api/v1/generate/sessions/{sessionKey}", orNotImplemented(deps.ListSessionHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
