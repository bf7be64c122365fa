package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famolydrive/drivequiz/internal/database"
	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/migrations"
)

func TestSubmit(t *testing.T) {
	q := drivequiz.Quiz{CorrectIndex: 2, Points: 10, Explanation: "because"}
	tests := []struct {
		selected    int
		wantCorrect bool
		wantPoints  int
	}{
		{2, true, 10},
		{0, false, 0},
		{3, false, 0},
	}
	for _, tt := range tests {
		r := Submit(q, tt.selected)
		assert.Equal(t, tt.wantCorrect, r.IsCorrect)
		assert.Equal(t, tt.wantPoints, r.PointsEarned)
		assert.Equal(t, 2, r.CorrectIndex)
		assert.Equal(t, "because", r.Explanation)
	}
}

func TestResultHint(t *testing.T) {
	short := Result{Explanation: "鎌倉幕府の守護神です。"}
	assert.Equal(t, short.Explanation, short.Hint())

	long := Result{Explanation: "正解です。鶴岡八幡宮は源頼朝が鎌倉幕府の守護神として現在の地に遷した神社です。"}
	assert.Equal(t, "正解です。鶴岡八幡宮は源頼朝が鎌倉幕府の...", long.Hint())
}

func TestSessionApply(t *testing.T) {
	q := drivequiz.Quiz{ID: "q1", CorrectIndex: 1, Points: 15}
	s := NewSession("p1", 0)

	s1, err := s.Apply("q1", Submit(q, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, s1.Score)
	assert.False(t, s1.Answered("q1"), "a wrong answer leaves the quiz open")

	s2, err := s1.Apply("q1", Submit(q, 1))
	require.NoError(t, err)
	assert.Equal(t, 15, s2.Score)
	assert.True(t, s2.Answered("q1"))
	assert.False(t, s1.Answered("q1"), "Apply must not mutate the receiver")

	_, err = s2.Apply("q1", Submit(q, 1))
	assert.ErrorIs(t, err, drivequiz.ErrAlreadyAnswered)
}

func TestSessionSkip(t *testing.T) {
	s, err := NewSession("p1", 20).Skip("q1")
	require.NoError(t, err)
	assert.Equal(t, 20, s.Score)
	assert.Equal(t, 1, s.AnsweredCount())

	_, err = s.Apply("q1", Result{IsCorrect: true, PointsEarned: 10})
	assert.ErrorIs(t, err, drivequiz.ErrAlreadyAnswered)
}

func TestZeroSessionSkip(t *testing.T) {
	var s Session
	next, err := s.Skip("q1")
	require.NoError(t, err)
	assert.True(t, next.Answered("q1"))
}

func openLedger(t *testing.T) (*Ledger, *sql.DB) {
	t.Helper()
	db, err := database.Open(context.Background(), database.Memory)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = migrations.Run(context.Background(), db)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO participants (id, name, token) VALUES ('p1', 'たろう', 'tok1')`)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO quizzes (id, spot_id, spot_name, question, options, correct_index, explanation, difficulty, points, source)
		VALUES ('q1', 'sample_1', '鎌倉大仏', 'いつ？', '["a","b","c","d"]', 2, '解説', 'elementary', 10, 'template'),
		       ('q2', 'sample_2', '鶴岡八幡宮', 'だれ？', '["a","b","c","d"]', 0, '解説', 'middle', 15, 'template')
	`)
	require.NoError(t, err)
	return New(db), db
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestLedgerWrongThenCorrect(t *testing.T) {
	l, db := openLedger(t)
	ctx := context.Background()

	out, err := l.Attempt(ctx, "p1", "q1", 0, "")
	require.NoError(t, err)
	assert.False(t, out.Result.IsCorrect)
	assert.Equal(t, 0, out.TotalScore)
	assert.Equal(t, 2, out.Result.CorrectIndex)

	out, err = l.Attempt(ctx, "p1", "q1", 2, "route-1")
	require.NoError(t, err)
	assert.True(t, out.Result.IsCorrect)
	assert.Equal(t, 10, out.Result.PointsEarned)
	assert.Equal(t, 10, out.TotalScore)
	assert.Equal(t, "route-1", out.Attempt.RouteID)

	_, err = l.Attempt(ctx, "p1", "q1", 2, "")
	assert.ErrorIs(t, err, drivequiz.ErrAlreadyAnswered)

	assert.Equal(t, 2, count(t, db, `SELECT COUNT(*) FROM quiz_attempts WHERE participant_id = 'p1'`))
	assert.Equal(t, 10, count(t, db, `SELECT total_score FROM participants WHERE id = 'p1'`))
}

func TestLedgerSkip(t *testing.T) {
	l, db := openLedger(t)
	ctx := context.Background()

	out, err := l.Skip(ctx, "p1", "q2", "")
	require.NoError(t, err)
	assert.Equal(t, drivequiz.SkipIndex, out.Attempt.SelectedIndex)
	assert.False(t, out.Result.IsCorrect)
	assert.Equal(t, 0, out.TotalScore)

	_, err = l.Attempt(ctx, "p1", "q2", 0, "")
	assert.ErrorIs(t, err, drivequiz.ErrAlreadyAnswered)
	assert.Equal(t, 0, count(t, db, `SELECT total_score FROM participants WHERE id = 'p1'`))

	s, err := l.Session(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, s.Answered("q2"))
	assert.False(t, s.Answered("q1"))
}

func TestLedgerRejects(t *testing.T) {
	l, _ := openLedger(t)
	ctx := context.Background()

	_, err := l.Attempt(ctx, "p1", "missing", 0, "")
	assert.ErrorIs(t, err, drivequiz.ErrNotFound)

	_, err = l.Attempt(ctx, "nobody", "q1", 0, "")
	assert.ErrorIs(t, err, drivequiz.ErrNotFound)

	_, err = l.Attempt(ctx, "p1", "q1", 4, "")
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = l.Session(ctx, "nobody")
	assert.ErrorIs(t, err, drivequiz.ErrNotFound)
}

func TestLedgerScoreAccumulates(t *testing.T) {
	l, _ := openLedger(t)
	ctx := context.Background()

	_, err := l.Attempt(ctx, "p1", "q1", 2, "")
	require.NoError(t, err)
	out, err := l.Attempt(ctx, "p1", "q2", 0, "")
	require.NoError(t, err)
	assert.Equal(t, 25, out.TotalScore)

	s, err := l.Session(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 25, s.Score)
	assert.Equal(t, 2, s.AnsweredCount())
}

func TestLedgerRollsBackWhenScoreUpdateFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, correct_index, points, explanation FROM quizzes").
		WithArgs("q1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "correct_index", "points", "explanation"}).AddRow("q1", 1, 20, "解説"))
	mock.ExpectQuery("SELECT total_score FROM participants").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"total_score"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("p1", "q1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO quiz_attempts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO answered_quizzes").WithArgs("p1", "q1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE participants SET total_score").
		WithArgs(20, "p1").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err = New(db).Attempt(context.Background(), "p1", "q1", 1, "")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRollsBackOnConcurrentClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "correct_index", "points", "explanation"}).AddRow("q1", 0, 10, ""))
	mock.ExpectQuery("FROM participants").
		WillReturnRows(sqlmock.NewRows([]string{"total_score"}).AddRow(0))
	mock.ExpectQuery("FROM answered_quizzes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO quiz_attempts").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO answered_quizzes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err = New(db).Attempt(context.Background(), "p1", "q1", 0, "")
	assert.ErrorIs(t, err, drivequiz.ErrAlreadyAnswered)
	assert.NoError(t, mock.ExpectationsWereMet())
}
