package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/famolydrive/drivequiz/internal/handler/health"
	"github.com/famolydrive/drivequiz/internal/metrics"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("DriveQuiz API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, d.Checks).Routes())
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/participants", func(r chi.Router) {
		r.Post("/", handleRegister(d.Store))
		r.Get("/ranking", handleRanking(d.Store))
		r.Get("/me/feed", handleFeed(logger, d.Store, d.Ledger, d.Broker))

		r.Group(func(r chi.Router) {
			r.Use(requireParticipant(d.Store))
			r.Get("/me", handleMe())
			r.Get("/me/attempts", handleAttempts(d.Store))
		})
	})

	r.Route("/api/routes", func(r chi.Router) {
		r.Post("/search", handleSearch(logger, d.Planner, d.Store))
		r.Get("/{id}", handleGetRoute(d.Store))
		r.Get("/{id}/kml", handleRouteKML(logger, d.Store))

		r.Group(func(r chi.Router) {
			r.Use(requireParticipant(d.Store))
			r.Post("/", handleSaveRoute(d.Store))
			r.Get("/", handleListRoutes(d.Store))
		})
	})

	r.Get("/api/spots/{placeID}/quizzes", handleSpotQuizzes(d.Store))

	r.Route("/api/quizzes", func(r chi.Router) {
		r.Post("/generate", handleGenerate(logger, d.Composer, d.Store))

		r.Group(func(r chi.Router) {
			r.Use(requireParticipant(d.Store))
			r.Post("/attempt", handleAttempt(d.Ledger, d.Broker))
			r.Post("/{id}/skip", handleSkip(d.Ledger, d.Broker))
		})
	})
}
