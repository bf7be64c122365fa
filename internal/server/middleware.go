package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

type ctxKey int

const ctxKeyParticipant ctxKey = iota

func requireParticipant(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := participantFromToken(r, store, bearerToken(r))
			if errors.Is(err, errNoSession) {
				writeError(w, http.StatusUnauthorized, "invalid or missing participant token")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyParticipant, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func participantFrom(r *http.Request) drivequiz.Participant {
	return r.Context().Value(ctxKeyParticipant).(drivequiz.Participant)
}
