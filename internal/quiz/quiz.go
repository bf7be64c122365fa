// Package quiz composes multiple-choice questions about historical spots.
//
// Two strategies implement Composer: Templated fills difficulty specific
// question templates and always succeeds; Generative asks a text generation
// provider and falls back to the composer it wraps whenever the provider
// errors, times out or answers in an unexpected shape.
package quiz

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

// Composer produces a quiz for a spot at a difficulty.
type Composer interface {
	Compose(ctx context.Context, spot drivequiz.HistoricalSpot, d drivequiz.Difficulty) (drivequiz.Quiz, error)
}

var points = map[drivequiz.Difficulty]int{
	drivequiz.DifficultyElementary: 10,
	drivequiz.DifficultyMiddle:     15,
	drivequiz.DifficultyHigh:       20,
	drivequiz.DifficultyAdult:      20,
}

// Points returns the score a correct answer is worth. Unknown bands are
// worth the middle band's value.
func Points(d drivequiz.Difficulty) int {
	if p, ok := points[d]; ok {
		return p
	}
	return points[drivequiz.DifficultyMiddle]
}

func normalize(d drivequiz.Difficulty) drivequiz.Difficulty {
	if d.Valid() {
		return d
	}
	return drivequiz.DifficultyMiddle
}

// Shuffle returns a uniformly permuted copy of options together with the new
// position of options[correct]. intn must return a value in [0, n); nil
// means math/rand/v2.IntN.
func Shuffle(options []string, correct int, intn func(int) int) ([]string, int) {
	if intn == nil {
		intn = rand.IntN
	}
	out := make([]string, len(options))
	copy(out, options)
	for i := len(out) - 1; i > 0; i-- {
		j := intn(i + 1)
		out[i], out[j] = out[j], out[i]
		switch correct {
		case i:
			correct = j
		case j:
			correct = i
		}
	}
	return out, correct
}

type Config struct {
	// Generator enables the generative strategy when set.
	Generator TextGenerator
	Budget    Budget
	Timeout   time.Duration
	Logger    *slog.Logger
}

// New selects the composition strategy once: Generative over Templated when
// a generator is configured, Templated alone otherwise.
func New(cfg Config) Composer {
	templated := NewTemplated(nil)
	if cfg.Generator == nil {
		return templated
	}
	return NewGenerative(cfg.Generator, templated, GenerativeOptions{
		Budget:  cfg.Budget,
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger,
	})
}
