package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"ragdemo/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	// Provider supplies the query service; *app.App implements it.
	Provider handlers.ServiceProvider
	// Health reports readiness for GET /api/health; *app.App implements it.
	Health handlers.HealthReporter
	// APIKey guards POST /api/query.
	APIKey string
	// RateLimit is the allowed /api/query requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	pageHandler := handlers.NewChatPageHandler(deps.Provider)
	queryHandler := handlers.NewQueryHandler(deps.Provider)
	healthHandler := handlers.NewHealthHandler(deps.Health)

	r.Method(http.MethodGet, "/", pageHandler)
	r.Method(http.MethodPost, "/chat", pageHandler)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Group(func(r chi.Router) {
			if deps.RateLimit > 0 {
				burst := deps.RateBurst
				if burst < 1 {
					burst = 1
				}
				r.Use(RateLimit(rate.NewLimiter(rate.Limit(deps.RateLimit), burst)))
			}
			r.Use(RequireAPIKey(deps.APIKey))
			r.Method(http.MethodPost, "/query", queryHandler)
		})
	})

	return r
}
