package routes

import (
	"net/http"

	"github.com/Dosada05/padelflow/docs"
	"github.com/Dosada05/padelflow/handlers"
	"github.com/Dosada05/padelflow/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	ScoreLimiter   *middleware.IPRateLimiter

	// Metrics отдаёт /metrics; nil - маршрут не регистрируется.
	Metrics http.Handler
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.SwaggerJSON)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	organizerOnly := middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleAdmin)

	router.Get("/brackets/phases", handlers.PhasesHandler)
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Get("/bracket", tournamentHandler.BracketHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)

			r.Post("/start", tournamentHandler.StartHandler)
			r.Put("/courts", tournamentHandler.AssignCourtsHandler)
			r.Post("/entrants", tournamentHandler.AddEntrantHandler)
			r.Delete("/entrants/{playerID}", tournamentHandler.RemoveEntrantHandler)
			r.Delete("/teams/{teamKey}", tournamentHandler.RemoveTeamHandler)
			r.Post("/complete", tournamentHandler.CompleteHandler)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(organizerOnly)
		if opts.ScoreLimiter != nil {
			r.Use(middleware.RateLimit(opts.ScoreLimiter))
		}
		r.Post("/score", matchHandler.SubmitScoreHandler)
	})
}
