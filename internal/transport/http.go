package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the REST router. The MCP handler, when non-nil, is
// mounted at /mcp behind the same authentication middleware.
func NewRouter(handler *Handler, auth *Auth, allowedOrigins []string, mcpHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/assessments", handler.startAssessment)
		r.Get("/assessments", handler.listAssessments)
		r.Get("/assessments/{threadID}", handler.getAssessment)
		r.Delete("/assessments/{threadID}", handler.deleteAssessment)
		r.Get("/assessments/{threadID}/history", handler.getHistory)
		r.Get("/assessments/{threadID}/aggregate", handler.getAggregate)
		r.Post("/assessments/{threadID}/answers", handler.submitAnswer)
		r.Get("/assessments/{threadID}/plan", handler.getPlan)
		r.Post("/assessments/{threadID}/pin", handler.pinAssessment)
		r.Delete("/assessments/{threadID}/pin", handler.unpinAssessment)

		r.Post("/plans/{planID}/phases/{phaseID}/steps/{stepID}/complete", handler.markStepComplete)

		r.Get("/pins", handler.listPinned)
		r.Get("/analytics", handler.getAnalytics)
	})

	if mcpHandler != nil {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Handle("/mcp", mcpHandler)
		})
	}

	return r
}
