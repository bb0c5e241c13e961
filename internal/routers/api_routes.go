package routers

import (
	"reactivate/api/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(r chi.Router, userHandler *handlers.UserHandler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", userHandler.CreateUserHandler)
		r.Get("/{userId}", userHandler.GetUserHandler)
	})
}

func ChallengeRoutes(r chi.Router, challengeHandler *handlers.ChallengeHandler) {
	r.Route("/api/challenges", func(r chi.Router) {
		r.Get("/", challengeHandler.ListChallengesHandler)
		r.Get("/{id}", challengeHandler.GetChallengeHandler)
		r.Post("/{id}/complete", challengeHandler.CompleteChallengeHandler)
	})
}

func LeaderboardRoutes(r chi.Router, leaderboardHandler *handlers.LeaderboardHandler) {
	r.Get("/api/leaderboard", leaderboardHandler.GetLeaderboardHandler)
}
