package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/famolydrive/drivequiz/internal/classify"
	"github.com/famolydrive/drivequiz/internal/drivequiz"
	"github.com/famolydrive/drivequiz/internal/metrics"
)

// template builds the options of one question. The correct answer is always
// options[0]; Compose shuffles afterwards.
type template struct {
	question string
	build    func(s drivequiz.HistoricalSpot, k classify.Kind, intn func(int) int) (options []string, explanation string)
}

func fixed(options []string, explanation string) func(drivequiz.HistoricalSpot, classify.Kind, func(int) int) ([]string, string) {
	return func(drivequiz.HistoricalSpot, classify.Kind, func(int) int) ([]string, string) {
		return options, explanation
	}
}

type choice struct {
	options     []string
	explanation string
}

func byKind(table map[classify.Kind]choice, fallback choice) func(drivequiz.HistoricalSpot, classify.Kind, func(int) int) ([]string, string) {
	return func(_ drivequiz.HistoricalSpot, k classify.Kind, _ func(int) int) ([]string, string) {
		c, ok := table[k]
		if !ok {
			c = fallback
		}
		return c.options, c.explanation
	}
}

// pick draws n distinct entries from pool, skipping exclude.
func pick(pool []string, exclude string, n int, intn func(int) int) []string {
	candidates := make([]string, 0, len(pool))
	for _, p := range pool {
		if p != exclude && !slices.Contains(candidates, p) {
			candidates = append(candidates, p)
		}
	}
	out := make([]string, 0, n)
	for len(out) < n && len(candidates) > 0 {
		i := intn(len(candidates))
		out = append(out, candidates[i])
		candidates = slices.Delete(candidates, i, i+1)
	}
	return out
}

var extraKinds = []string{"公園", "ショッピングモール", "オフィスビル", "駅"}

func kindQuestion(s drivequiz.HistoricalSpot, k classify.Kind, intn func(int) int) ([]string, string) {
	correct := k.Label()
	options := append([]string{correct}, pick(append(classify.Labels(), extraKinds...), correct, drivequiz.OptionCount-1, intn)...)
	return options, description(s)
}

var wrongDescriptions = []string{
	"近代的なショッピングセンターです",
	"新しく建設されたオフィスビルです",
	"テーマパークの一部です",
	"最近できた観光施設です",
	"高速道路のサービスエリアです",
}

func descriptionQuestion(s drivequiz.HistoricalSpot, _ classify.Kind, intn func(int) int) ([]string, string) {
	correct := description(s)
	options := append([]string{correct}, pick(wrongDescriptions, correct, drivequiz.OptionCount-1, intn)...)
	return options, "正解です。" + correct
}

var significance = []string{
	"地域の文化的アイデンティティの形成に重要な役割を果たした",
	"交通の要衝として経済発展に貢献した",
	"宗教的な中心地として人々の精神的支えとなった",
	"政治的な拠点として地域統治の中心となった",
	"芸術や学問の発展に寄与した",
	"防衛拠点として地域の安全を守った",
}

func significanceOptions(_ drivequiz.HistoricalSpot, _ classify.Kind, intn func(int) int) ([]string, string) {
	return pick(significance, "", drivequiz.OptionCount, intn),
		"歴史的建造物は、その時代の社会や文化を反映し、地域の発展に重要な役割を果たしてきました。"
}

func description(s drivequiz.HistoricalSpot) string {
	if s.Description != "" {
		return s.Description
	}
	return classify.Describe(s.Name, s.Types)
}

var (
	eraQuestion = template{
		question: "%sはいつ頃建てられたでしょう？",
		build: byKind(map[classify.Kind]choice{
			classify.KindShrine: {
				options:     []string{"平安時代", "江戸時代", "明治時代", "昭和時代"},
				explanation: "多くの神社は平安時代に建てられ、地域の人々の信仰の中心となってきました。",
			},
			classify.KindTemple: {
				options:     []string{"奈良時代", "鎌倉時代", "室町時代", "江戸時代"},
				explanation: "多くのお寺は奈良時代から建てられ、仏教を広める役割を果たしてきました。",
			},
			classify.KindCastle: {
				options:     []string{"戦国時代", "奈良時代", "明治時代", "昭和時代"},
				explanation: "多くのお城は戦国時代に、戦いに備えて建てられました。",
			},
		}, choice{
			options:     []string{"江戸時代", "古墳時代", "平成時代", "令和時代"},
			explanation: "この場所は長い歴史を持ち、その時代の文化を今に伝えています。",
		}),
	}

	purposeQuestion = template{
		question: "%sは何のための建物でしょう？",
		build: byKind(map[classify.Kind]choice{
			classify.KindShrine: {
				options:     []string{"神様をまつる場所", "お殿様の家", "学校", "市場"},
				explanation: "神社は神様をまつり、人々がお参りする場所です。",
			},
			classify.KindTemple: {
				options:     []string{"仏様をまつる場所", "武士の訓練場", "商人の店", "農民の家"},
				explanation: "お寺は仏様をまつり、お坊さんが修行をする場所です。",
			},
			classify.KindCastle: {
				options:     []string{"お殿様が住み、守りを固める場所", "神様をまつる場所", "市場", "学校"},
				explanation: "お城はお殿様が住み、敵から領地を守るための建物です。",
			},
			classify.KindMuseum: {
				options:     []string{"歴史の資料を展示する場所", "工場", "駅", "病院"},
				explanation: "博物館では昔の道具や資料を見て、歴史を学ぶことができます。",
			},
			classify.KindGallery: {
				options:     []string{"美術品を展示する場所", "工場", "駅", "病院"},
				explanation: "美術館では絵や彫刻などの美術品を見ることができます。",
			},
		}, choice{
			options:     []string{"歴史を伝える場所", "遊園地", "工場", "駅"},
			explanation: "歴史的な建物は、昔の人々の暮らしを今に伝えています。",
		}),
	}

	typeQuestion = template{
		question: "%sは次のうちどれでしょう？",
		build:    kindQuestion,
	}

	personQuestion = template{
		question: "%sに関連する歴史上の人物として知られているのは誰でしょう？",
		build: fixed(
			[]string{"源頼朝", "織田信長", "豊臣秀吉", "徳川家康"},
			"源頼朝は鎌倉幕府を開き、多くの寺社を保護しました。",
		),
	}

	periodQuestion = template{
		question: "%sが建てられた時代の特徴として正しいものはどれでしょう？",
		build: fixed(
			[]string{
				"武士が政治の中心となった",
				"貴族が政治の中心となった",
				"天皇が直接政治を行った",
				"商人が政治の中心となった",
			},
			"鎌倉時代以降、武士が政治の中心となり、多くの寺社が建てられました。",
		),
	}

	descQuestion = template{
		question: "%sについて正しい説明はどれでしょう？",
		build:    descriptionQuestion,
	}

	architectureQuestion = template{
		question: "%sの建築様式の特徴として最も適切なものはどれか。",
		build: fixed(
			[]string{
				"和様と禅宗様の折衷様式",
				"純粋な唐様建築",
				"西洋建築の影響を受けた様式",
				"近代的な鉄筋コンクリート造",
			},
			"多くの寺社建築は、伝統的な和様に禅宗様の要素を取り入れた折衷様式で建てられています。",
		),
	}

	roleQuestion = template{
		question: "%sが果たした歴史的役割として最も重要なものは何か。",
		build: fixed(
			[]string{
				"地域の政治・文化の中心地",
				"軍事的な防衛拠点のみ",
				"商業の中心地のみ",
				"農業技術の研究施設",
			},
			"歴史的建造物は宗教的な役割だけでなく、地域の政治や文化の中心としても機能していました。",
		),
	}

	significanceQuestion = template{
		question: "%sの歴史的意義について、最も適切なものを選びなさい。",
		build:    significanceOptions,
	}
)

var templates = map[drivequiz.Difficulty][]template{
	drivequiz.DifficultyElementary: {eraQuestion, purposeQuestion, typeQuestion},
	drivequiz.DifficultyMiddle:     {personQuestion, periodQuestion, descQuestion},
	drivequiz.DifficultyHigh:       {architectureQuestion, roleQuestion, significanceQuestion},
	drivequiz.DifficultyAdult:      {architectureQuestion, roleQuestion, significanceQuestion},
}

// Templated fills a randomly chosen template for the difficulty band.
type Templated struct {
	intn func(int) int
}

// NewTemplated returns a composer drawing from intn; nil uses math/rand/v2.
func NewTemplated(intn func(int) int) *Templated {
	if intn == nil {
		intn = rand.IntN
	}
	return &Templated{intn: intn}
}

// Compose never fails. Unknown difficulties are treated as middle.
func (t *Templated) Compose(_ context.Context, spot drivequiz.HistoricalSpot, d drivequiz.Difficulty) (drivequiz.Quiz, error) {
	d = normalize(d)
	list := templates[d]
	tpl := list[t.intn(len(list))]

	options, explanation := tpl.build(spot, classify.KindOf(spot.Name, spot.Types), t.intn)
	options, correct := Shuffle(options[:drivequiz.OptionCount], 0, t.intn)

	metrics.QuizzesComposed.WithLabelValues(string(drivequiz.SourceTemplate)).Inc()
	return drivequiz.Quiz{
		SpotID:       spot.PlaceID,
		SpotName:     spot.Name,
		Question:     fmt.Sprintf(tpl.question, spot.Name),
		Options:      options,
		CorrectIndex: correct,
		Explanation:  explanation,
		Difficulty:   d,
		Points:       Points(d),
		Source:       drivequiz.SourceTemplate,
	}, nil
}
