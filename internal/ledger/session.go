// Package ledger evaluates answers and records them against a participant's
// score. Submit and Session are pure; Ledger persists the same rules in one
// SQLite transaction per attempt.
package ledger

import (
	"errors"
	"maps"
	"unicode/utf8"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

// ErrInvalidSelection is returned for an answer index outside the options.
var ErrInvalidSelection = errors.New("selected answer out of range")

// Result is the evaluation of one answer.
type Result struct {
	IsCorrect    bool
	PointsEarned int
	CorrectIndex int
	Explanation  string
}

// Submit evaluates selected against q. It has no side effects.
func Submit(q drivequiz.Quiz, selected int) Result {
	r := Result{
		IsCorrect:    selected == q.CorrectIndex,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
	}
	if r.IsCorrect {
		r.PointsEarned = q.Points
	}
	return r
}

// HintRunes is how much of the explanation a wrong answer gets to see.
const HintRunes = 20

// Hint is the start of the explanation, cut to HintRunes runes, for an
// answer that leaves the quiz open.
func (r Result) Hint() string {
	if utf8.RuneCountInString(r.Explanation) <= HintRunes {
		return r.Explanation
	}
	return string([]rune(r.Explanation)[:HintRunes]) + "..."
}

// Session is one participant's score and answered set. Its methods return
// a new Session and leave the receiver untouched.
type Session struct {
	ParticipantID string
	Score         int
	answered      map[string]struct{}
}

func NewSession(participantID string, score int, answered ...string) Session {
	s := Session{ParticipantID: participantID, Score: score, answered: make(map[string]struct{}, len(answered))}
	for _, id := range answered {
		s.answered[id] = struct{}{}
	}
	return s
}

// Answered reports whether quizID is closed for this participant.
func (s Session) Answered(quizID string) bool {
	_, ok := s.answered[quizID]
	return ok
}

// AnsweredCount is the size of the answered set.
func (s Session) AnsweredCount() int { return len(s.answered) }

func (s Session) with(quizID string, points int) Session {
	next := Session{ParticipantID: s.ParticipantID, Score: s.Score + points, answered: maps.Clone(s.answered)}
	if next.answered == nil {
		next.answered = make(map[string]struct{}, 1)
	}
	next.answered[quizID] = struct{}{}
	return next
}

// Apply records r for quizID. A correct result closes the quiz and adds its
// points; a wrong one leaves the session as is so the quiz can be retried.
func (s Session) Apply(quizID string, r Result) (Session, error) {
	if s.Answered(quizID) {
		return s, drivequiz.ErrAlreadyAnswered
	}
	if !r.IsCorrect {
		return s, nil
	}
	return s.with(quizID, r.PointsEarned), nil
}

// Skip closes quizID without points.
func (s Session) Skip(quizID string) (Session, error) {
	if s.Answered(quizID) {
		return s, drivequiz.ErrAlreadyAnswered
	}
	return s.with(quizID, 0), nil
}
