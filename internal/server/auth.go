package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

var errNoSession = errors.New("no valid session")

func bearerToken(r *http.Request) string {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func participantFromToken(r *http.Request, store Store, token string) (drivequiz.Participant, error) {
	if token == "" {
		return drivequiz.Participant{}, errNoSession
	}
	p, err := store.ParticipantByToken(r.Context(), token)
	if errors.Is(err, drivequiz.ErrNotFound) {
		return p, errNoSession
	}
	return p, err
}
