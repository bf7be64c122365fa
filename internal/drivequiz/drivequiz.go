// Package drivequiz defines the core domain types shared by the route, places,
// quiz and ledger packages. It has zero external dependencies.
package drivequiz

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a referenced quiz, route or participant
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRouteNotFound is returned when the origin, the destination or the
	// route between them cannot be resolved.
	ErrRouteNotFound = errors.New("route not found")

	// ErrAlreadyAnswered is returned when a participant attempts a quiz that
	// is already in their answered set.
	ErrAlreadyAnswered = errors.New("quiz already answered")
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Step struct {
	Instruction string     `json:"instruction"`
	Distance    string     `json:"distance"`
	Duration    string     `json:"duration"`
	Start       Coordinate `json:"start"`
	End         Coordinate `json:"end"`
}

type Route struct {
	Origin       string     `json:"origin"`
	Destination  string     `json:"destination"`
	OriginCoords Coordinate `json:"originCoords"`
	DestCoords   Coordinate `json:"destCoords"`
	Distance     string     `json:"distance"`
	Duration     string     `json:"duration"`
	Polyline     string     `json:"polyline"`
	Steps        []Step     `json:"steps,omitempty"`
}

type HistoricalSpot struct {
	PlaceID     string     `json:"placeId"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Location    Coordinate `json:"location"`
	Types       []string   `json:"types"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
}

// Difficulty is an audience band. The zero value is not a valid band.
type Difficulty string

const (
	DifficultyElementary Difficulty = "elementary"
	DifficultyMiddle     Difficulty = "middle"
	DifficultyHigh       Difficulty = "high"
	DifficultyAdult      Difficulty = "adult"
)

// Difficulties lists the bands in ascending order.
var Difficulties = []Difficulty{
	DifficultyElementary,
	DifficultyMiddle,
	DifficultyHigh,
	DifficultyAdult,
}

var difficultyAliases = map[string]Difficulty{
	"elementary": DifficultyElementary,
	"小学生":        DifficultyElementary,
	"middle":     DifficultyMiddle,
	"中学生":        DifficultyMiddle,
	"high":       DifficultyHigh,
	"高校生":        DifficultyHigh,
	"adult":      DifficultyAdult,
	"大人":         DifficultyAdult,
}

// ParseDifficulty maps an English or Japanese band label to a Difficulty.
// Unknown labels map to DifficultyMiddle.
func ParseDifficulty(s string) Difficulty {
	if d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d
	}
	return DifficultyMiddle
}

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyElementary, DifficultyMiddle, DifficultyHigh, DifficultyAdult:
		return true
	}
	return false
}

// Label is the Japanese audience label used in prompts and quiz text.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyElementary:
		return "小学生"
	case DifficultyHigh:
		return "高校生"
	case DifficultyAdult:
		return "大人"
	default:
		return "中学生"
	}
}

type QuizSource string

const (
	SourceTemplate   QuizSource = "template"
	SourceGenerative QuizSource = "generative"
)

// OptionCount is the number of answer options every quiz carries.
const OptionCount = 4

type Quiz struct {
	ID           string     `json:"id,omitempty"`
	SpotID       string     `json:"spotId"`
	SpotName     string     `json:"spotName"`
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correctAnswer"`
	Explanation  string     `json:"explanation"`
	Difficulty   Difficulty `json:"difficulty"`
	Points       int        `json:"points"`
	Source       QuizSource `json:"generatedBy"`
	CreatedAt    string     `json:"createdAt,omitempty"`
}

// Valid reports whether q carries exactly OptionCount options and a correct
// index that addresses one of them.
func (q Quiz) Valid() bool {
	return len(q.Options) == OptionCount && q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

// SkipIndex is the selected index recorded for a skipped quiz.
const SkipIndex = -1

type Attempt struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	QuizID        string    `json:"quizId"`
	RouteID       string    `json:"routeId,omitempty"`
	SelectedIndex int       `json:"selectedAnswer"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsEarned  int       `json:"pointsEarned"`
	AttemptedAt   time.Time `json:"attemptedAt"`
}

type Participant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Token      string    `json:"-"`
	TotalScore int       `json:"totalScore"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SavedRoute is a resolved route persisted for a participant.
type SavedRoute struct {
	ID            string           `json:"id"`
	ParticipantID string           `json:"participantId"`
	Route         Route            `json:"route"`
	Spots         []HistoricalSpot `json:"historicalSpots"`
	CreatedAt     time.Time        `json:"createdAt"`
}
