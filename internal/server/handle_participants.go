package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

type RegisterRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type RegisterResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Token      string `json:"token"`
	TotalScore int    `json:"totalScore"`
}

func handleRegister(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		p, err := store.CreateParticipant(r.Context(), req.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, RegisterResponse{
			ID:         p.ID,
			Name:       p.Name,
			Token:      p.Token,
			TotalScore: p.TotalScore,
		})
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, participantFrom(r))
	}
}

// queryInt reads a non-negative integer query parameter, clamped to ceiling.
func queryInt(r *http.Request, name string, def, ceiling int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return min(n, ceiling), true
}

func handleRanking(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 10, 100)
		if !ok || limit == 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}

		ranking, err := store.Ranking(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ranking)
	}
}

func handleAttempts(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(r, "limit", 20, 100)
		if !ok || limit == 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		offset, ok := queryInt(r, "offset", 0, 1<<20)
		if !ok {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}

		attempts, err := store.Attempts(r.Context(), participantFrom(r).ID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if attempts == nil {
			attempts = []drivequiz.Attempt{}
		}
		writeJSON(w, http.StatusOK, attempts)
	}
}
