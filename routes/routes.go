package routes

import (
	"github.com/Dosada05/arena-tournaments/handlers"
	"github.com/Dosada05/arena-tournaments/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	ratingHandler *handlers.RatingHandler,
	templateHandler *handlers.TemplateHandler,
	battleHandler *handlers.BattleHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Post("/auth/login", authHandler.LoginHandler)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Post("/", tournamentHandler.CreateHandler)
		r.Post("/leave", tournamentHandler.LeaveHandler)
		r.Post("/ready", tournamentHandler.ReadyHandler)
		r.Get("/{name}", tournamentHandler.GetHandler)
		r.Post("/{name}/join", tournamentHandler.JoinHandler)
		r.Post("/{name}/start", tournamentHandler.StartHandler)

		// Привилегированные операции
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.RequireRole(middleware.RoleAdmin))

			r.Delete("/{name}", tournamentHandler.DeleteHandler)
			r.Post("/{name}/result", tournamentHandler.ForceResultHandler)
		})
	})

	router.Route("/ratings", func(r chi.Router) {
		r.Get("/", ratingHandler.LeaderboardHandler)
		r.Get("/{competitorID}", ratingHandler.GetHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate([]byte(jwtSecret)))
			r.Use(middleware.RequireRole(middleware.RoleAdmin))

			r.Post("/reset", ratingHandler.ResetHandler)
		})
	})

	router.Route("/templates", func(r chi.Router) {
		r.Use(middleware.Authenticate([]byte(jwtSecret)))
		r.Use(middleware.RequireRole(middleware.RoleAdmin))

		r.Get("/", templateHandler.ListHandler)
		r.Post("/", templateHandler.CreateHandler)
		r.Delete("/{name}", templateHandler.DeleteHandler)
	})

	router.Post("/battles/outcome", battleHandler.OutcomeHandler)

	router.Get("/ws/tournaments/{name}", webSocketHandler.ServeHandler)
}
