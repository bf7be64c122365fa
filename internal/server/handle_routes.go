package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/kmlexport"
)

type SearchRequest struct {
	Origin      string `json:"origin" validate:"required"`
	Destination string `json:"destination" validate:"required"`
}

type SaveRouteRequest struct {
	Route drivequiz.Route            `json:"route"`
	Spots []drivequiz.HistoricalSpot `json:"historicalSpots"`
}

func handleSearch(logger *slog.Logger, planner Planner, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SearchRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Origin = strings.TrimSpace(req.Origin)
		req.Destination = strings.TrimSpace(req.Destination)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		res, err := planner.Search(r.Context(), req.Origin, req.Destination)
		if errors.Is(err, drivequiz.ErrRouteNotFound) {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Spots are kept so quizzes can reference them later; a failure here
		// does not spoil the search.
		if err := store.UpsertSpots(r.Context(), res.Spots); err != nil {
			logger.Warn("storing searched spots", "error", err)
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func handleSaveRoute(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveRouteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Route.Origin == "" || req.Route.Destination == "" {
			writeError(w, http.StatusBadRequest, "route origin and destination are required")
			return
		}
		for _, s := range req.Spots {
			if s.PlaceID == "" || s.Name == "" {
				writeError(w, http.StatusBadRequest, "every spot needs placeId and name")
				return
			}
		}

		saved, err := store.SaveRoute(r.Context(), participantFrom(r).ID, req.Route, req.Spots)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func handleListRoutes(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := store.ListRoutes(r.Context(), participantFrom(r).ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, routes)
	}
}

func handleGetRoute(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saved, err := store.GetRoute(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, drivequiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func handleRouteKML(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		saved, err := store.GetRoute(r.Context(), id)
		if errors.Is(err, drivequiz.ErrNotFound) {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var buf bytes.Buffer
		if err := kmlexport.Write(&buf, saved.Route, saved.Spots); err != nil {
			logger.Error("rendering kml", "route_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", kmlexport.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="route-%s.kml"`, id))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}
