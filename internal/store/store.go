// Package store persists participants, saved routes, historical spots and
// quizzes in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

const timeLayout = time.RFC3339Nano

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// --- participants ---

func (s *SQLiteStore) CreateParticipant(ctx context.Context, name string) (drivequiz.Participant, error) {
	p := drivequiz.Participant{
		ID:    uuid.NewString(),
		Name:  name,
		Token: uuid.NewString(),
	}
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO participants (id, name, token)
		VALUES (?, ?, ?)
		RETURNING created_at
	`, p.ID, p.Name, p.Token).Scan(&createdAt)
	if err != nil {
		return drivequiz.Participant{}, fmt.Errorf("inserting participant: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

func (s *SQLiteStore) scanParticipant(row *sql.Row) (drivequiz.Participant, error) {
	var p drivequiz.Participant
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.Token, &p.TotalScore, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, drivequiz.ErrNotFound
	}
	p.CreatedAt = parseTime(createdAt)
	return p, err
}

func (s *SQLiteStore) ParticipantByToken(ctx context.Context, token string) (drivequiz.Participant, error) {
	return s.scanParticipant(s.db.QueryRowContext(ctx, `
		SELECT id, name, token, total_score, created_at FROM participants WHERE token = ?
	`, token))
}

func (s *SQLiteStore) Participant(ctx context.Context, id string) (drivequiz.Participant, error) {
	return s.scanParticipant(s.db.QueryRowContext(ctx, `
		SELECT id, name, token, total_score, created_at FROM participants WHERE id = ?
	`, id))
}

// Ranking lists participants by score, highest first. Ties go to whoever
// registered first.
func (s *SQLiteStore) Ranking(ctx context.Context, limit int) ([]drivequiz.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, total_score, created_at
		FROM participants
		ORDER BY total_score DESC, created_at
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranking := []drivequiz.Participant{}
	for rows.Next() {
		var p drivequiz.Participant
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.TotalScore, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		ranking = append(ranking, p)
	}
	return ranking, rows.Err()
}

// --- spots ---

// UpsertSpots inserts spots whose place id is not stored yet. Existing rows
// are left untouched.
func (s *SQLiteStore) UpsertSpots(ctx context.Context, spots []drivequiz.HistoricalSpot) error {
	return upsertSpots(ctx, s.db, spots)
}

func upsertSpots(ctx context.Context, q queryer, spots []drivequiz.HistoricalSpot) error {
	for _, sp := range spots {
		types, err := json.Marshal(sp.Types)
		if err != nil {
			return fmt.Errorf("encoding types: %w", err)
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO historical_spots (place_id, name, address, lat, lng, types, description, difficulty)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (place_id) DO NOTHING
		`, sp.PlaceID, sp.Name, sp.Address, sp.Location.Lat, sp.Location.Lng, string(types), sp.Description, string(sp.Difficulty))
		if err != nil {
			return fmt.Errorf("upserting spot %s: %w", sp.PlaceID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Spot(ctx context.Context, placeID string) (drivequiz.HistoricalSpot, error) {
	var sp drivequiz.HistoricalSpot
	var types, difficulty string
	err := s.db.QueryRowContext(ctx, `
		SELECT place_id, name, address, lat, lng, types, description, difficulty
		FROM historical_spots WHERE place_id = ?
	`, placeID).Scan(&sp.PlaceID, &sp.Name, &sp.Address, &sp.Location.Lat, &sp.Location.Lng, &types, &sp.Description, &difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return sp, drivequiz.ErrNotFound
	}
	if err != nil {
		return sp, err
	}
	if err := json.Unmarshal([]byte(types), &sp.Types); err != nil {
		return sp, fmt.Errorf("decoding types of spot %s: %w", placeID, err)
	}
	sp.Difficulty = drivequiz.Difficulty(difficulty)
	return sp, nil
}

// --- routes ---

// SaveRoute stores route for a participant together with its spots.
func (s *SQLiteStore) SaveRoute(ctx context.Context, participantID string, route drivequiz.Route, spots []drivequiz.HistoricalSpot) (drivequiz.SavedRoute, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return drivequiz.SavedRoute{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	saved := drivequiz.SavedRoute{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		Route:         route,
		Spots:         spots,
	}
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO routes (id, participant_id, origin, destination, origin_lat, origin_lng, dest_lat, dest_lng, distance, duration, polyline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`, saved.ID, participantID, route.Origin, route.Destination,
		route.OriginCoords.Lat, route.OriginCoords.Lng, route.DestCoords.Lat, route.DestCoords.Lng,
		route.Distance, route.Duration, route.Polyline).Scan(&createdAt)
	if err != nil {
		return drivequiz.SavedRoute{}, fmt.Errorf("inserting route: %w", err)
	}
	saved.CreatedAt = parseTime(createdAt)

	if err := upsertSpots(ctx, tx, spots); err != nil {
		return drivequiz.SavedRoute{}, err
	}
	for i, sp := range spots {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO route_spots (route_id, place_id, position) VALUES (?, ?, ?)
			ON CONFLICT DO NOTHING
		`, saved.ID, sp.PlaceID, i)
		if err != nil {
			return drivequiz.SavedRoute{}, fmt.Errorf("linking spot %s: %w", sp.PlaceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return drivequiz.SavedRoute{}, fmt.Errorf("committing route: %w", err)
	}
	if saved.Spots == nil {
		saved.Spots = []drivequiz.HistoricalSpot{}
	}
	return saved, nil
}

const routeColumns = `id, participant_id, origin, destination, origin_lat, origin_lng, dest_lat, dest_lng, distance, duration, polyline, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRoute(row scanner) (drivequiz.SavedRoute, error) {
	var r drivequiz.SavedRoute
	var createdAt string
	err := row.Scan(&r.ID, &r.ParticipantID, &r.Route.Origin, &r.Route.Destination,
		&r.Route.OriginCoords.Lat, &r.Route.OriginCoords.Lng, &r.Route.DestCoords.Lat, &r.Route.DestCoords.Lng,
		&r.Route.Distance, &r.Route.Duration, &r.Route.Polyline, &createdAt)
	r.CreatedAt = parseTime(createdAt)
	return r, err
}

func (s *SQLiteStore) GetRoute(ctx context.Context, id string) (drivequiz.SavedRoute, error) {
	r, err := scanRoute(s.db.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return r, drivequiz.ErrNotFound
	}
	if err != nil {
		return r, err
	}
	r.Spots, err = s.routeSpots(ctx, id)
	return r, err
}

// ListRoutes returns a participant's route history, newest first.
func (s *SQLiteStore) ListRoutes(ctx context.Context, participantID string) ([]drivequiz.SavedRoute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+routeColumns+` FROM routes
		WHERE participant_id = ?
		ORDER BY created_at DESC
	`, participantID)
	if err != nil {
		return nil, err
	}

	routes := []drivequiz.SavedRoute{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		routes = append(routes, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Spots are loaded after the route cursor is closed; an in-memory
	// database has a single connection.
	for i := range routes {
		if routes[i].Spots, err = s.routeSpots(ctx, routes[i].ID); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func (s *SQLiteStore) routeSpots(ctx context.Context, routeID string) ([]drivequiz.HistoricalSpot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.place_id, h.name, h.address, h.lat, h.lng, h.types, h.description, h.difficulty
		FROM route_spots rs
		JOIN historical_spots h ON h.place_id = rs.place_id
		WHERE rs.route_id = ?
		ORDER BY rs.position
	`, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spots := []drivequiz.HistoricalSpot{}
	for rows.Next() {
		var sp drivequiz.HistoricalSpot
		var types, difficulty string
		if err := rows.Scan(&sp.PlaceID, &sp.Name, &sp.Address, &sp.Location.Lat, &sp.Location.Lng, &types, &sp.Description, &difficulty); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(types), &sp.Types); err != nil {
			return nil, fmt.Errorf("decoding types of spot %s: %w", sp.PlaceID, err)
		}
		sp.Difficulty = drivequiz.Difficulty(difficulty)
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

// --- quizzes ---

const quizColumns = `id, spot_id, spot_name, question, options, correct_index, explanation, difficulty, points, source, created_at`

func scanQuiz(row scanner) (drivequiz.Quiz, error) {
	var q drivequiz.Quiz
	var options, difficulty, source string
	err := row.Scan(&q.ID, &q.SpotID, &q.SpotName, &q.Question, &options, &q.CorrectIndex,
		&q.Explanation, &difficulty, &q.Points, &source, &q.CreatedAt)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return q, fmt.Errorf("decoding options of quiz %s: %w", q.ID, err)
	}
	if len(q.Options) != drivequiz.OptionCount {
		return q, fmt.Errorf("quiz %s has %d options, want %d", q.ID, len(q.Options), drivequiz.OptionCount)
	}
	q.Difficulty = drivequiz.Difficulty(difficulty)
	q.Source = drivequiz.QuizSource(source)
	return q, nil
}

// SaveQuiz stores q unless a quiz with the same spot and question exists,
// and returns the stored row either way.
func (s *SQLiteStore) SaveQuiz(ctx context.Context, q drivequiz.Quiz) (drivequiz.Quiz, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return drivequiz.Quiz{}, fmt.Errorf("encoding options: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quizzes (id, spot_id, spot_name, question, options, correct_index, explanation, difficulty, points, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (spot_id, question) DO NOTHING
	`, uuid.NewString(), q.SpotID, q.SpotName, q.Question, string(options), q.CorrectIndex,
		q.Explanation, string(q.Difficulty), q.Points, string(q.Source))
	if err != nil {
		return drivequiz.Quiz{}, fmt.Errorf("inserting quiz: %w", err)
	}

	stored, err := scanQuiz(s.db.QueryRowContext(ctx, `
		SELECT `+quizColumns+` FROM quizzes WHERE spot_id = ? AND question = ?
	`, q.SpotID, q.Question))
	if err != nil {
		return drivequiz.Quiz{}, fmt.Errorf("loading quiz: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStore) GetQuiz(ctx context.Context, id string) (drivequiz.Quiz, error) {
	q, err := scanQuiz(s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return q, drivequiz.ErrNotFound
	}
	return q, err
}

func (s *SQLiteStore) QuizzesForSpot(ctx context.Context, spotID string) ([]drivequiz.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quizColumns+` FROM quizzes WHERE spot_id = ? ORDER BY created_at
	`, spotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []drivequiz.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

// --- attempts ---

// Attempts returns a participant's attempt history, newest first.
func (s *SQLiteStore) Attempts(ctx context.Context, participantID string, limit, offset int) ([]drivequiz.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_id, quiz_id, COALESCE(route_id, ''), selected_index, is_correct, points_earned, attempted_at
		FROM quiz_attempts
		WHERE participant_id = ?
		ORDER BY attempted_at DESC
		LIMIT ? OFFSET ?
	`, participantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []drivequiz.Attempt{}
	for rows.Next() {
		var a drivequiz.Attempt
		var correct int
		var at string
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.QuizID, &a.RouteID, &a.SelectedIndex, &correct, &a.PointsEarned, &at); err != nil {
			return nil, err
		}
		a.IsCorrect = correct == 1
		a.AttemptedAt = parseTime(at)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
