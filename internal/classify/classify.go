// Package classify derives a description and an audience difficulty for a
// venue from its display name and category tags. Every decision is driven by
// ordered rule tables so the keywords can be tested and localized in one place.
package classify

import (
	"fmt"
	"slices"
	"strings"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

// Kind is the coarse venue category the rules settle on.
type Kind string

const (
	KindTemple     Kind = "temple"
	KindShrine     Kind = "shrine"
	KindCastle     Kind = "castle"
	KindMuseum     Kind = "museum"
	KindGallery    Kind = "gallery"
	KindChurch     Kind = "church"
	KindMonument   Kind = "monument"
	KindAttraction Kind = "attraction"
	KindGeneric    Kind = "generic"
)

type rule struct {
	match func(name string, types []string) bool
	kind  Kind
}

func nameHas(kind Kind, keywords ...string) rule {
	return rule{
		kind: kind,
		match: func(name string, _ []string) bool {
			for _, k := range keywords {
				if strings.Contains(name, k) {
					return true
				}
			}
			return false
		},
	}
}

func typeIs(kind Kind, tags ...string) rule {
	return rule{
		kind: kind,
		match: func(_ string, types []string) bool {
			for _, t := range tags {
				if slices.Contains(types, t) {
					return true
				}
			}
			return false
		},
	}
}

// kindRules are evaluated top to bottom. Name keywords win over tags.
var kindRules = []rule{
	nameHas(KindGallery, "美術館"),
	nameHas(KindMuseum, "博物館", "資料館"),
	nameHas(KindTemple, "寺", "院"),
	nameHas(KindShrine, "神社", "宮"),
	nameHas(KindCastle, "城"),
	typeIs(KindTemple, "buddhist_temple", "hindu_temple"),
	typeIs(KindShrine, "shinto_shrine"),
	typeIs(KindChurch, "church"),
	typeIs(KindMuseum, "museum"),
	typeIs(KindGallery, "art_gallery"),
	typeIs(KindCastle, "castle"),
	typeIs(KindMonument, "monument"),
	typeIs(KindAttraction, "tourist_attraction"),
}

var descriptions = map[Kind]string{
	KindTemple:     "%sは歴史ある寺院で、多くの参拝者が訪れます。",
	KindShrine:     "%sは地域の守り神として古くから信仰されている神社です。",
	KindCastle:     "%sは戦国時代の歴史を今に伝える貴重な史跡です。",
	KindMuseum:     "%sでは地域の歴史や文化について学ぶことができます。",
	KindGallery:    "%sでは貴重な美術品や展示を見ることができます。",
	KindChurch:     "%sは長い歴史を持つ教会です。",
	KindMonument:   "%sは歴史的な記念碑です。",
	KindAttraction: "%sは人気の観光スポットです。",
	KindGeneric:    "%sは歴史的に重要な場所として知られています。",
}

var labels = map[Kind]string{
	KindTemple:     "寺院",
	KindShrine:     "神社",
	KindCastle:     "城",
	KindMuseum:     "博物館",
	KindGallery:    "美術館",
	KindChurch:     "教会",
	KindMonument:   "記念碑",
	KindAttraction: "観光地",
	KindGeneric:    "史跡",
}

// KindOf returns the first kind whose rule matches, or KindGeneric.
func KindOf(name string, types []string) Kind {
	for _, r := range kindRules {
		if r.match(name, types) {
			return r.kind
		}
	}
	return KindGeneric
}

// Label is the Japanese noun for a kind.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return labels[KindGeneric]
}

// Labels returns the labels of every kind in a stable order.
func Labels() []string {
	kinds := []Kind{KindTemple, KindShrine, KindCastle, KindMuseum, KindGallery, KindChurch, KindMonument, KindAttraction}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = labels[k]
	}
	return out
}

// Describe renders the description template for the venue's kind.
func Describe(name string, types []string) string {
	return fmt.Sprintf(descriptions[KindOf(name, types)], name)
}

var difficultyRules = []struct {
	keywords []string
	band     drivequiz.Difficulty
}{
	{keywords: []string{"城", "寺", "神社", "大"}, band: drivequiz.DifficultyElementary},
	{keywords: []string{"美術館", "博物館"}, band: drivequiz.DifficultyMiddle},
}

// DifficultyOf assigns a band from name keywords. It defaults to high.
func DifficultyOf(name string) drivequiz.Difficulty {
	for _, r := range difficultyRules {
		for _, k := range r.keywords {
			if strings.Contains(name, k) {
				return r.band
			}
		}
	}
	return drivequiz.DifficultyHigh
}

// Classify returns the description and difficulty for a venue.
func Classify(name string, types []string) (string, drivequiz.Difficulty) {
	return Describe(name, types), DifficultyOf(name)
}

// Apply fills in Description and Difficulty on a spot.
func Apply(spot drivequiz.HistoricalSpot) drivequiz.HistoricalSpot {
	spot.Description, spot.Difficulty = Classify(spot.Name, spot.Types)
	return spot
}
