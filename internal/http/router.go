package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notebook-ai/internal/handlers"
	"notebook-ai/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	ChatService    service.ChatService
	SearchService  service.SearchService
	PublishService service.PublishService
	StatsService   service.StatsService
	// HealthChecks are run by GET /api/health, keyed by dependency name.
	HealthChecks map[string]handlers.CheckFunc
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	chatHandler := handlers.NewChatHandler(deps.ChatService)
	searchHandler := handlers.NewSearchHandler(deps.SearchService)
	publishHandler := handlers.NewPublishHandler(deps.PublishService)
	statsHandler := handlers.NewStatsHandler(deps.StatsService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Group(func(r chi.Router) {
			r.Use(UserMiddleware)

			r.Method(http.MethodPost, "/chat", chatHandler)
			r.Method(http.MethodPost, "/search", searchHandler)
			r.Method(http.MethodGet, "/stats", statsHandler)
			r.Post("/versions/{versionID}/publish", publishHandler.Publish)
			r.Post("/versions/{versionID}/unpublish", publishHandler.Unpublish)
			r.Delete("/notes/{noteID}", publishHandler.DeleteNote)
		})
	})

	return r
}
