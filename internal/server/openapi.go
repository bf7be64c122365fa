package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/trip"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CheckStatus is one entry of the health report, keyed by dependency name.
type CheckStatus struct {
	Status string `json:"status" enum:"ok,degraded,error"`
}

type paginationQuery struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100"`
	Offset int `query:"offset" minimum:"0"`
}

type rankingQuery struct {
	Limit int `query:"limit" minimum:"1" maximum:"100"`
}

type feedQuery struct {
	Token string `query:"token" required:"true"`
}

type routeIDPath struct {
	ID string `path:"id"`
}

type placeIDPath struct {
	PlaceID string `path:"placeID"`
}

type skipRequest struct {
	ID      string `path:"id"`
	RouteID string `query:"routeId"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "DriveQuiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Historical spot quizzes along a family drive.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports each backend dependency as ok, degraded (optional dependency down) or error.")
	getHealthz.AddRespStructure(map[string]CheckStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]CheckStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/participants
	register, _ := r.NewOperationContext(http.MethodPost, "/api/participants")
	register.SetSummary("Register participant")
	register.SetDescription("Creates a participant and returns the bearer token used by the scored endpoints.")
	register.AddReqStructure(RegisterRequest{})
	register.AddRespStructure(RegisterResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	register.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(register)

	// GET /api/participants/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/participants/me")
	getMe.SetSummary("Current participant")
	getMe.SetDescription("Requires Bearer token.")
	getMe.AddRespStructure(drivequiz.Participant{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/participants/ranking
	ranking, _ := r.NewOperationContext(http.MethodGet, "/api/participants/ranking")
	ranking.SetSummary("Ranking")
	ranking.SetDescription("Participants ordered by total score, highest first.")
	ranking.AddReqStructure(rankingQuery{})
	ranking.AddRespStructure([]drivequiz.Participant{}, openapi.WithHTTPStatus(http.StatusOK))
	ranking.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(ranking)

	// GET /api/participants/me/attempts
	attempts, _ := r.NewOperationContext(http.MethodGet, "/api/participants/me/attempts")
	attempts.SetSummary("Attempt history")
	attempts.SetDescription("Newest attempts first. Requires Bearer token.")
	attempts.AddReqStructure(paginationQuery{})
	attempts.AddRespStructure([]drivequiz.Attempt{}, openapi.WithHTTPStatus(http.StatusOK))
	attempts.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(attempts)

	// GET /api/participants/me/feed
	feed, _ := r.NewOperationContext(http.MethodGet, "/api/participants/me/feed")
	feed.SetSummary("Score feed")
	feed.SetDescription("Upgrades to a WebSocket that sends a snapshot and then one ScoreEvent per attempt. Pass token as query parameter.")
	feed.AddReqStructure(feedQuery{})
	feed.AddRespStructure(ScoreEvent{}, openapi.WithHTTPStatus(http.StatusSwitchingProtocols))
	feed.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(feed)

	// POST /api/routes/search
	search, _ := r.NewOperationContext(http.MethodPost, "/api/routes/search")
	search.SetSummary("Search route")
	search.SetDescription("Resolves a driving route and finds historical spots along it. Falls back to sample spots when none are found.")
	search.AddReqStructure(SearchRequest{})
	search.AddRespStructure(trip.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	search.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	search.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(search)

	// POST /api/routes
	saveRoute, _ := r.NewOperationContext(http.MethodPost, "/api/routes")
	saveRoute.SetSummary("Save route")
	saveRoute.SetDescription("Stores a searched route and its spots for the participant. Requires Bearer token.")
	saveRoute.AddReqStructure(SaveRouteRequest{})
	saveRoute.AddRespStructure(drivequiz.SavedRoute{}, openapi.WithHTTPStatus(http.StatusCreated))
	saveRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	saveRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(saveRoute)

	// GET /api/routes
	listRoutes, _ := r.NewOperationContext(http.MethodGet, "/api/routes")
	listRoutes.SetSummary("Route history")
	listRoutes.SetDescription("Requires Bearer token.")
	listRoutes.AddRespStructure([]drivequiz.SavedRoute{}, openapi.WithHTTPStatus(http.StatusOK))
	listRoutes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listRoutes)

	// GET /api/routes/{id}
	getRoute, _ := r.NewOperationContext(http.MethodGet, "/api/routes/{id}")
	getRoute.SetSummary("Get route")
	getRoute.AddReqStructure(routeIDPath{})
	getRoute.AddRespStructure(drivequiz.SavedRoute{}, openapi.WithHTTPStatus(http.StatusOK))
	getRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRoute)

	// GET /api/routes/{id}/kml
	getKML, _ := r.NewOperationContext(http.MethodGet, "/api/routes/{id}/kml")
	getKML.SetSummary("Export route as KML")
	getKML.SetDescription("The route line and one placemark per spot, for Google Earth or My Maps.")
	getKML.AddReqStructure(routeIDPath{})
	getKML.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("application/vnd.google-earth.kml+xml"))
	getKML.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getKML)

	// GET /api/spots/{placeID}/quizzes
	spotQuizzes, _ := r.NewOperationContext(http.MethodGet, "/api/spots/{placeID}/quizzes")
	spotQuizzes.SetSummary("Quizzes for a spot")
	spotQuizzes.AddReqStructure(placeIDPath{})
	spotQuizzes.AddRespStructure([]drivequiz.Quiz{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(spotQuizzes)

	// POST /api/quizzes/generate
	generate, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/generate")
	generate.SetSummary("Generate quiz")
	generate.SetDescription("Composes a four option quiz for a spot and stores it. Uses the text generation provider when configured, templates otherwise.")
	generate.AddReqStructure(GenerateRequest{})
	generate.AddRespStructure(drivequiz.Quiz{}, openapi.WithHTTPStatus(http.StatusOK))
	generate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	generate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(generate)

	// POST /api/quizzes/attempt
	attempt, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/attempt")
	attempt.SetSummary("Answer quiz")
	attempt.SetDescription("Scores an answer. A wrong answer gets a short hint and may be retried; the correct answer and explanation are returned once a correct answer closes the quiz. Requires Bearer token.")
	attempt.AddReqStructure(AttemptRequest{})
	attempt.AddRespStructure(AttemptResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	attempt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	attempt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	attempt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	attempt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(attempt)

	// POST /api/quizzes/{id}/skip
	skip, _ := r.NewOperationContext(http.MethodPost, "/api/quizzes/{id}/skip")
	skip.SetSummary("Skip quiz")
	skip.SetDescription("Closes a quiz without points. Requires Bearer token.")
	skip.AddReqStructure(skipRequest{})
	skip.AddRespStructure(AttemptResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	skip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	skip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	skip.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(skip)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
