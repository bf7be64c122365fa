package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/ledger"
	"github.com/famolydrive/drivequiz/internal/quiz"
)

// GenerateRequest names the venue either inline or by a place ID that an
// earlier search stored.
type GenerateRequest struct {
	Spot       *drivequiz.HistoricalSpot `json:"spot"`
	PlaceID    string                    `json:"placeId"`
	Difficulty string                    `json:"difficulty"`
}

type AttemptRequest struct {
	QuizID         string `json:"quizId" validate:"required"`
	SelectedAnswer *int   `json:"selectedAnswer" validate:"required,min=0,max=3"`
	RouteID        string `json:"routeId"`
}

// AttemptResponse reveals CorrectAnswer and Explanation only once the quiz
// is closed. A wrong answer gets a Hint and may be retried.
type AttemptResponse struct {
	AttemptID     string `json:"attemptId"`
	IsCorrect     bool   `json:"isCorrect"`
	PointsEarned  int    `json:"pointsEarned"`
	CorrectAnswer *int   `json:"correctAnswer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
	Hint          string `json:"hint,omitempty"`
	TotalScore    int    `json:"totalScore"`
}

func handleGenerate(logger *slog.Logger, composer quiz.Composer, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var spot drivequiz.HistoricalSpot
		switch {
		case req.Spot != nil && strings.TrimSpace(req.Spot.Name) != "":
			spot = *req.Spot
		case req.PlaceID != "" || req.Spot != nil && req.Spot.PlaceID != "":
			id := req.PlaceID
			if id == "" {
				id = req.Spot.PlaceID
			}
			stored, err := store.Spot(r.Context(), id)
			if errors.Is(err, drivequiz.ErrNotFound) {
				writeError(w, http.StatusNotFound, "spot not found")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			spot = stored
		default:
			writeError(w, http.StatusBadRequest, "spot is required")
			return
		}

		d := spot.Difficulty
		if req.Difficulty != "" || !d.Valid() {
			d = drivequiz.ParseDifficulty(req.Difficulty)
		}

		q, err := composer.Compose(r.Context(), spot, d)
		if err != nil {
			logger.Error("composing quiz", "spot", spot.PlaceID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Quizzes for ad hoc spots without a place ID are returned unsaved.
		if spot.PlaceID == "" {
			writeJSON(w, http.StatusOK, q)
			return
		}
		if err := store.UpsertSpots(r.Context(), []drivequiz.HistoricalSpot{spot}); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		saved, err := store.SaveQuiz(r.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleSpotQuizzes(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizzes, err := store.QuizzesForSpot(r.Context(), chi.URLParam(r, "placeID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if quizzes == nil {
			quizzes = []drivequiz.Quiz{}
		}
		writeJSON(w, http.StatusOK, quizzes)
	}
}

func handleAttempt(l Ledger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AttemptRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		p := participantFrom(r)
		out, err := l.Attempt(r.Context(), p.ID, req.QuizID, *req.SelectedAnswer, req.RouteID)
		if !writeLedgerError(w, err) {
			return
		}

		publishOutcome(r, l, broker, p.ID, out)
		writeJSON(w, http.StatusOK, attemptResponse(out))
	}
}

func handleSkip(l Ledger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := participantFrom(r)
		out, err := l.Skip(r.Context(), p.ID, chi.URLParam(r, "id"), r.URL.Query().Get("routeId"))
		if !writeLedgerError(w, err) {
			return
		}

		publishOutcome(r, l, broker, p.ID, out)
		writeJSON(w, http.StatusOK, attemptResponse(out))
	}
}

// writeLedgerError maps a ledger error to a response. It reports whether the
// caller should carry on.
func writeLedgerError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, drivequiz.ErrNotFound):
		writeError(w, http.StatusNotFound, "quiz not found")
	case errors.Is(err, drivequiz.ErrAlreadyAnswered):
		writeError(w, http.StatusConflict, "quiz already answered")
	case errors.Is(err, ledger.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, "selectedAnswer must be between 0 and 3")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
	return false
}

func attemptResponse(out ledger.Outcome) AttemptResponse {
	resp := AttemptResponse{
		AttemptID:    out.Attempt.ID,
		IsCorrect:    out.Result.IsCorrect,
		PointsEarned: out.Result.PointsEarned,
		TotalScore:   out.TotalScore,
	}
	if out.Result.IsCorrect || out.Attempt.SelectedIndex == drivequiz.SkipIndex {
		correct := out.Result.CorrectIndex
		resp.CorrectAnswer = &correct
		resp.Explanation = out.Result.Explanation
	} else {
		resp.Hint = out.Result.Hint()
	}
	return resp
}

func publishOutcome(r *http.Request, l Ledger, broker *Broker, participantID string, out ledger.Outcome) {
	if broker == nil {
		return
	}
	ev := ScoreEvent{
		Type:         "attempt",
		QuizID:       out.Attempt.QuizID,
		IsCorrect:    out.Result.IsCorrect,
		PointsEarned: out.Result.PointsEarned,
		TotalScore:   out.TotalScore,
	}
	if out.Attempt.SelectedIndex == drivequiz.SkipIndex {
		ev.Type = "skip"
	}
	if s, err := l.Session(r.Context(), participantID); err == nil {
		ev.Answered = s.AnsweredCount()
	}
	broker.Publish(participantID, ev)
}
