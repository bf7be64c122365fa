package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

// Outcome is what a persisted attempt produced.
type Outcome struct {
	Attempt    drivequiz.Attempt
	Result     Result
	TotalScore int
}

// Ledger persists attempts. Each call is one transaction: the attempt row,
// the answered-set entry and the score change commit together or not at all.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Attempt evaluates selected for quizID and records it.
func (l *Ledger) Attempt(ctx context.Context, participantID, quizID string, selected int, routeID string) (Outcome, error) {
	if selected < 0 || selected >= drivequiz.OptionCount {
		return Outcome{}, ErrInvalidSelection
	}
	return l.record(ctx, participantID, quizID, selected, routeID)
}

// Skip closes quizID for the participant without points.
func (l *Ledger) Skip(ctx context.Context, participantID, quizID, routeID string) (Outcome, error) {
	return l.record(ctx, participantID, quizID, drivequiz.SkipIndex, routeID)
}

func (l *Ledger) record(ctx context.Context, participantID, quizID string, selected int, routeID string) (Outcome, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var q drivequiz.Quiz
	err = tx.QueryRowContext(ctx, `
		SELECT id, correct_index, points, explanation FROM quizzes WHERE id = ?
	`, quizID).Scan(&q.ID, &q.CorrectIndex, &q.Points, &q.Explanation)
	if errors.Is(err, sql.ErrNoRows) {
		return Outcome{}, drivequiz.ErrNotFound
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("loading quiz: %w", err)
	}

	var score int
	err = tx.QueryRowContext(ctx, `
		SELECT total_score FROM participants WHERE id = ?
	`, participantID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return Outcome{}, drivequiz.ErrNotFound
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("loading participant: %w", err)
	}

	var answered int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM answered_quizzes WHERE participant_id = ? AND quiz_id = ?
	`, participantID, quizID).Scan(&answered)
	if err != nil {
		return Outcome{}, fmt.Errorf("checking answered set: %w", err)
	}
	if answered > 0 {
		return Outcome{}, drivequiz.ErrAlreadyAnswered
	}

	skipped := selected == drivequiz.SkipIndex
	result := Result{CorrectIndex: q.CorrectIndex, Explanation: q.Explanation}
	if !skipped {
		result = Submit(q, selected)
	}

	attempt := drivequiz.Attempt{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		QuizID:        quizID,
		RouteID:       routeID,
		SelectedIndex: selected,
		IsCorrect:     result.IsCorrect,
		PointsEarned:  result.PointsEarned,
		AttemptedAt:   l.now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO quiz_attempts (id, participant_id, quiz_id, route_id, selected_index, is_correct, points_earned, attempted_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
	`, attempt.ID, participantID, quizID, routeID, selected, boolInt(result.IsCorrect), result.PointsEarned,
		attempt.AttemptedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Outcome{}, fmt.Errorf("inserting attempt: %w", err)
	}

	if result.IsCorrect || skipped {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO answered_quizzes (participant_id, quiz_id) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, participantID, quizID)
		if err != nil {
			return Outcome{}, fmt.Errorf("closing quiz: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return Outcome{}, drivequiz.ErrAlreadyAnswered
		}
	}

	if result.PointsEarned > 0 {
		err = tx.QueryRowContext(ctx, `
			UPDATE participants SET total_score = total_score + ? WHERE id = ?
			RETURNING total_score
		`, result.PointsEarned, participantID).Scan(&score)
		if err != nil {
			return Outcome{}, fmt.Errorf("updating score: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("committing attempt: %w", err)
	}
	return Outcome{Attempt: attempt, Result: result, TotalScore: score}, nil
}

// Session loads a participant's score and answered set.
func (l *Ledger) Session(ctx context.Context, participantID string) (Session, error) {
	var score int
	err := l.db.QueryRowContext(ctx, `SELECT total_score FROM participants WHERE id = ?`, participantID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, drivequiz.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading participant: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT quiz_id FROM answered_quizzes WHERE participant_id = ? ORDER BY answered_at
	`, participantID)
	if err != nil {
		return Session{}, fmt.Errorf("loading answered set: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Session{}, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return Session{}, err
	}
	return NewSession(participantID, score, ids...), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
