package quiz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

var kamakura = drivequiz.HistoricalSpot{
	PlaceID:     "p1",
	Name:        "鶴岡八幡宮",
	Types:       []string{"shinto_shrine"},
	Description: "鶴岡八幡宮は鎌倉の守護神として古くから信仰されています。",
	Difficulty:  drivequiz.DifficultyMiddle,
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seq returns an intn that replays values modulo n.
func seq(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		v := values[i%len(values)] % n
		i++
		return v
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		d    drivequiz.Difficulty
		want int
	}{
		{drivequiz.DifficultyElementary, 10},
		{drivequiz.DifficultyMiddle, 15},
		{drivequiz.DifficultyHigh, 20},
		{drivequiz.DifficultyAdult, 20},
		{drivequiz.Difficulty("unknown"), 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Points(tt.d), string(tt.d))
	}
}

func TestShuffleTracksCorrect(t *testing.T) {
	options := []string{"a", "b", "c", "d"}
	for correct := range options {
		for seed := range 24 {
			out, idx := Shuffle(options, correct, seq(seed, seed/2, seed/3))
			require.Len(t, out, 4)
			assert.Equal(t, options[correct], out[idx])
			assert.ElementsMatch(t, options, out)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, options, "input must not be mutated")
}

func TestShuffleIsRoughlyUniform(t *testing.T) {
	counts := make([]int, 4)
	for range 4000 {
		_, idx := Shuffle([]string{"a", "b", "c", "d"}, 0, nil)
		counts[idx]++
	}
	for i, c := range counts {
		assert.InDelta(t, 1000, c, 200, "position %d", i)
	}
}

func TestTemplatedComposeEveryBand(t *testing.T) {
	c := NewTemplated(nil)
	for _, d := range drivequiz.Difficulties {
		for range 20 {
			q, err := c.Compose(context.Background(), kamakura, d)
			require.NoError(t, err)
			assert.True(t, q.Valid(), "%s: %+v", d, q)
			assert.Equal(t, d, q.Difficulty)
			assert.Equal(t, Points(d), q.Points)
			assert.Equal(t, drivequiz.SourceTemplate, q.Source)
			assert.Equal(t, "p1", q.SpotID)
			assert.Contains(t, q.Question, "鶴岡八幡宮")
			assert.NotEmpty(t, q.Explanation)

			seen := map[string]bool{}
			for _, o := range q.Options {
				assert.False(t, seen[o], "duplicate option %q", o)
				seen[o] = true
			}
		}
	}
}

func TestTemplatedUnknownDifficultyIsMiddle(t *testing.T) {
	q, err := NewTemplated(nil).Compose(context.Background(), kamakura, "expert")
	require.NoError(t, err)
	assert.Equal(t, drivequiz.DifficultyMiddle, q.Difficulty)
	assert.Equal(t, 15, q.Points)
}

func TestTemplatedPurposeUsesKind(t *testing.T) {
	// First draw picks the template, the rest drive the shuffle.
	c := NewTemplated(seq(1, 0, 0, 0))
	q, err := c.Compose(context.Background(), kamakura, drivequiz.DifficultyElementary)
	require.NoError(t, err)
	assert.Equal(t, "神様をまつる場所", q.Options[q.CorrectIndex])
}

func TestTemplatedTypeQuestionAnswerIsLabel(t *testing.T) {
	c := NewTemplated(seq(2, 0, 1, 2, 0))
	q, err := c.Compose(context.Background(), drivequiz.HistoricalSpot{Name: "小田原城"}, drivequiz.DifficultyElementary)
	require.NoError(t, err)
	assert.Equal(t, "城", q.Options[q.CorrectIndex])
}

const wellFormed = `問題: 鶴岡八幡宮を現在の場所に移したのは誰でしょう？
1. 源頼朝
2. 足利尊氏
3. 徳川家康
4. 織田信長
正解: 1
解説: 源頼朝が1180年に現在の場所へ移しました。`

func TestParse(t *testing.T) {
	p, err := Parse(wellFormed)
	require.NoError(t, err)
	assert.Equal(t, "鶴岡八幡宮を現在の場所に移したのは誰でしょう？", p.Question)
	assert.Equal(t, []string{"源頼朝", "足利尊氏", "徳川家康", "織田信長"}, p.Options)
	assert.Equal(t, 0, p.Correct)
	assert.Equal(t, "源頼朝が1180年に現在の場所へ移しました。", p.Explanation)
}

func TestParseVariants(t *testing.T) {
	text := "Q: Who?\n１) one\n２) two\n３) three\n４) four\n正解：３番\n"
	p, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "Who?", p.Question)
	assert.Equal(t, 2, p.Correct)
	assert.Equal(t, defaultExplanation, p.Explanation)
}

func TestParseMalformed(t *testing.T) {
	tests := map[string]string{
		"no answer":     strings.Replace(wellFormed, "正解: 1\n", "", 1),
		"answer range":  strings.Replace(wellFormed, "正解: 1", "正解: 7", 1),
		"three options": strings.Replace(wellFormed, "4. 織田信長\n", "", 1),
		"no question":   strings.Replace(wellFormed, "問題:", "", 1),
		"empty":         "",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestPromptBoundsDescription(t *testing.T) {
	spot := kamakura
	spot.Description = strings.Repeat("歴", 1000)
	p := Prompt(spot, drivequiz.DifficultyHigh)

	assert.Contains(t, p, "高校生")
	assert.Contains(t, p, "正解: [1-4の番号]")
	assert.Equal(t, maxDescriptionRunes, strings.Count(p, "歴")-strings.Count(Prompt(drivequiz.HistoricalSpot{Name: spot.Name}, drivequiz.DifficultyHigh), "歴"))
	assert.Less(t, utf8.RuneCountInString(p), 1000)
}

type fakeGenerator struct {
	out   Generation
	err   error
	delay time.Duration
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, _ string) (Generation, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Generation{}, ctx.Err()
		}
	}
	return f.out, f.err
}

type fakeBudget struct {
	allow    bool
	recorded int
}

func (b *fakeBudget) Allow(context.Context) bool { return b.allow }
func (b *fakeBudget) Record(_ context.Context, n int) { b.recorded += n }

func TestGenerativeUsesProvider(t *testing.T) {
	gen := &fakeGenerator{out: Generation{Text: wellFormed, TotalTokens: 120}}
	budget := &fakeBudget{allow: true}
	c := NewGenerative(gen, NewTemplated(nil), GenerativeOptions{Budget: budget, Logger: discard()})

	q, err := c.Compose(context.Background(), kamakura, drivequiz.DifficultyHigh)
	require.NoError(t, err)
	assert.Equal(t, drivequiz.SourceGenerative, q.Source)
	assert.True(t, q.Valid())
	assert.Equal(t, "源頼朝", q.Options[q.CorrectIndex])
	assert.Equal(t, 20, q.Points)
	assert.Equal(t, 120, budget.recorded)
}

func TestGenerativeFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		gen    *fakeGenerator
		budget *fakeBudget
		calls  int
	}{
		{name: "provider error", gen: &fakeGenerator{err: errors.New("rate limited")}, calls: 1},
		{name: "missing answer", gen: &fakeGenerator{out: Generation{Text: strings.Replace(wellFormed, "正解: 1\n", "", 1)}}, calls: 1},
		{name: "timeout", gen: &fakeGenerator{delay: time.Second, out: Generation{Text: wellFormed}}, calls: 1},
		{name: "budget exhausted", gen: &fakeGenerator{out: Generation{Text: wellFormed}}, budget: &fakeBudget{}, calls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := GenerativeOptions{Timeout: 20 * time.Millisecond, Logger: discard()}
			if tt.budget != nil {
				opts.Budget = tt.budget
			}
			c := NewGenerative(tt.gen, NewTemplated(nil), opts)

			q, err := c.Compose(context.Background(), kamakura, drivequiz.DifficultyElementary)
			require.NoError(t, err)
			assert.Equal(t, drivequiz.SourceTemplate, q.Source)
			assert.True(t, q.Valid())
			assert.Equal(t, 10, q.Points)
			assert.Equal(t, tt.calls, tt.gen.calls)
		})
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	_, ok := New(Config{}).(*Templated)
	assert.True(t, ok)

	_, ok = New(Config{Generator: &fakeGenerator{}}).(*Generative)
	assert.True(t, ok)
}
