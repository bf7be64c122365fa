package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/metrics"
)

// Generation is the text a provider returned and what it cost.
type Generation struct {
	Text        string
	TotalTokens int
}

// TextGenerator is the capability the generative strategy consumes.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (Generation, error)
}

// Budget gates generation calls by token spend.
type Budget interface {
	Allow(ctx context.Context) bool
	Record(ctx context.Context, tokens int)
}

const (
	DefaultGenerateTimeout = 15 * time.Second
	maxDescriptionRunes    = 300
	maxNameRunes           = 100
	defaultExplanation     = "この場所は歴史的に重要な役割を果たしてきました。"
)

// ErrMalformed marks a generation that does not follow the labelled format.
var ErrMalformed = errors.New("malformed generation")

type GenerativeOptions struct {
	Budget  Budget
	Timeout time.Duration
	Logger  *slog.Logger
	// Intn drives option shuffling. Nil uses math/rand/v2.
	Intn func(int) int
}

// Generative asks a TextGenerator for a quiz and falls back to another
// composer on any failure.
type Generative struct {
	gen      TextGenerator
	fallback Composer
	budget   Budget
	timeout  time.Duration
	logger   *slog.Logger
	intn     func(int) int
}

func NewGenerative(gen TextGenerator, fallback Composer, opts GenerativeOptions) *Generative {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGenerateTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}
	return &Generative{
		gen:      gen,
		fallback: fallback,
		budget:   opts.Budget,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		intn:     opts.Intn,
	}
}

func (g *Generative) Compose(ctx context.Context, spot drivequiz.HistoricalSpot, d drivequiz.Difficulty) (drivequiz.Quiz, error) {
	d = normalize(d)

	if g.budget != nil && !g.budget.Allow(ctx) {
		g.logger.Info("generation budget exhausted, using template", "place_id", spot.PlaceID)
		return g.fallback.Compose(ctx, spot, d)
	}

	gctx, cancel := context.WithTimeout(ctx, g.timeout)
	out, err := g.gen.Generate(gctx, Prompt(spot, d))
	cancel()
	if err != nil {
		metrics.ProviderFailures.WithLabelValues("openai", "generate").Inc()
		g.logger.Warn("quiz generation failed", "place_id", spot.PlaceID, "error", err)
		return g.fallback.Compose(ctx, spot, d)
	}

	if out.TotalTokens > 0 {
		metrics.GenerationTokens.Add(float64(out.TotalTokens))
		if g.budget != nil {
			g.budget.Record(ctx, out.TotalTokens)
		}
	}

	parsed, err := Parse(out.Text)
	if err != nil {
		g.logger.Warn("unusable generation", "place_id", spot.PlaceID, "error", err)
		return g.fallback.Compose(ctx, spot, d)
	}

	options, correct := Shuffle(parsed.Options, parsed.Correct, g.intn)
	metrics.QuizzesComposed.WithLabelValues(string(drivequiz.SourceGenerative)).Inc()
	return drivequiz.Quiz{
		SpotID:       spot.PlaceID,
		SpotName:     spot.Name,
		Question:     parsed.Question,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  parsed.Explanation,
		Difficulty:   d,
		Points:       Points(d),
		Source:       drivequiz.SourceGenerative,
	}, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

var audience = map[drivequiz.Difficulty]string{
	drivequiz.DifficultyElementary: "小学生でも分かる簡単な言葉で、身近な疑問を問う",
	drivequiz.DifficultyMiddle:     "中学生の歴史の授業で習う人物や時代を問う",
	drivequiz.DifficultyHigh:       "高校生向けに、建築様式や歴史的意義を問う",
	drivequiz.DifficultyAdult:      "大人向けに、専門的な知識を問う",
}

// Prompt renders the generation request for a spot. The venue text is
// bounded so a long description cannot inflate the request.
func Prompt(spot drivequiz.HistoricalSpot, d drivequiz.Difficulty) string {
	d = normalize(d)
	var b strings.Builder
	fmt.Fprintf(&b, "以下の歴史的な場所について、%s向けの4択クイズを1問作成してください。\n\n", d.Label())
	fmt.Fprintf(&b, "場所の名前: %s\n", truncate(spot.Name, maxNameRunes))
	if spot.Description != "" {
		fmt.Fprintf(&b, "説明: %s\n", truncate(spot.Description, maxDescriptionRunes))
	}
	fmt.Fprintf(&b, "\n条件:\n- %s問題にすること\n- 選択肢は4つで、正解は1つだけにすること\n- 事実に基づいた内容にすること\n\n", audience[d])
	b.WriteString("次の形式で回答してください:\n")
	b.WriteString("問題: [問題文]\n1. [選択肢1]\n2. [選択肢2]\n3. [選択肢3]\n4. [選択肢4]\n正解: [1-4の番号]\n解説: [解説文]\n")
	return b.String()
}

// Parsed is a well formed generation. Correct indexes Options.
type Parsed struct {
	Question    string
	Options     []string
	Correct     int
	Explanation string
}

var (
	optionLine = regexp.MustCompile(`^([1-4])\s*[.)．、:：]\s*(.+)$`)
	answerNum  = regexp.MustCompile(`[1-4]`)
)

var labelPrefixes = map[string][]string{
	"question":    {"問題", "Question", "Q"},
	"answer":      {"正解", "答え", "Answer", "A"},
	"explanation": {"解説", "Explanation", "E"},
}

// labelled reports whether line starts with one of the labels followed by a
// colon, returning the text after it.
func labelled(line, field string) (string, bool) {
	for _, p := range labelPrefixes[field] {
		rest, ok := strings.CutPrefix(line, p)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		for _, colon := range []string{":", "："} {
			if v, ok := strings.CutPrefix(rest, colon); ok {
				return strings.TrimSpace(v), true
			}
		}
	}
	return "", false
}

var fullWidthDigits = strings.NewReplacer("１", "1", "２", "2", "３", "3", "４", "4")

// Parse extracts a quiz from labelled lines. A missing question, a count of
// options other than four or an answer outside 1..4 is ErrMalformed. A
// missing explanation gets a generic one.
func Parse(text string) (Parsed, error) {
	var p Parsed
	answer := ""
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(fullWidthDigits.Replace(raw))
		if line == "" {
			continue
		}
		if v, ok := labelled(line, "question"); ok {
			p.Question = v
			continue
		}
		if v, ok := labelled(line, "answer"); ok {
			answer = v
			continue
		}
		if v, ok := labelled(line, "explanation"); ok {
			p.Explanation = v
			continue
		}
		if m := optionLine.FindStringSubmatch(line); m != nil {
			p.Options = append(p.Options, strings.TrimSpace(m[2]))
		}
	}

	if p.Question == "" {
		return Parsed{}, fmt.Errorf("%w: no question", ErrMalformed)
	}
	if len(p.Options) != drivequiz.OptionCount {
		return Parsed{}, fmt.Errorf("%w: %d options", ErrMalformed, len(p.Options))
	}
	num := answerNum.FindString(answer)
	if num == "" {
		return Parsed{}, fmt.Errorf("%w: answer %q", ErrMalformed, answer)
	}
	n, _ := strconv.Atoi(num)
	p.Correct = n - 1
	if p.Explanation == "" {
		p.Explanation = defaultExplanation
	}
	return p, nil
}
