package server

import (
	"context"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/ledger"
	"github.com/famolydrive/drivequiz/internal/trip"
)

type Store interface {
	CreateParticipant(ctx context.Context, name string) (drivequiz.Participant, error)
	ParticipantByToken(ctx context.Context, token string) (drivequiz.Participant, error)
	Ranking(ctx context.Context, limit int) ([]drivequiz.Participant, error)
	Attempts(ctx context.Context, participantID string, limit, offset int) ([]drivequiz.Attempt, error)

	UpsertSpots(ctx context.Context, spots []drivequiz.HistoricalSpot) error
	Spot(ctx context.Context, placeID string) (drivequiz.HistoricalSpot, error)

	SaveRoute(ctx context.Context, participantID string, route drivequiz.Route, spots []drivequiz.HistoricalSpot) (drivequiz.SavedRoute, error)
	GetRoute(ctx context.Context, id string) (drivequiz.SavedRoute, error)
	ListRoutes(ctx context.Context, participantID string) ([]drivequiz.SavedRoute, error)

	SaveQuiz(ctx context.Context, q drivequiz.Quiz) (drivequiz.Quiz, error)
	QuizzesForSpot(ctx context.Context, spotID string) ([]drivequiz.Quiz, error)
}

type Ledger interface {
	Attempt(ctx context.Context, participantID, quizID string, selected int, routeID string) (ledger.Outcome, error)
	Skip(ctx context.Context, participantID, quizID, routeID string) (ledger.Outcome, error)
	Session(ctx context.Context, participantID string) (ledger.Session, error)
}

type Planner interface {
	Search(ctx context.Context, origin, destination string) (trip.Result, error)
}
