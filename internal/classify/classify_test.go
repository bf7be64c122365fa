package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name  string
		venue string
		types []string
		want  Kind
	}{
		{name: "temple by name", venue: "建長寺", want: KindTemple},
		{name: "shrine by name", venue: "鶴岡八幡宮", want: KindShrine},
		{name: "castle by name", venue: "小田原城", want: KindCastle},
		{name: "museum by name", venue: "神奈川県立歴史博物館", want: KindMuseum},
		{name: "gallery before temple keyword", venue: "鎌倉国宝館美術館", want: KindGallery},
		{name: "name wins over tags", venue: "円覚寺", types: []string{"museum"}, want: KindTemple},
		{name: "tag fallback", venue: "Old Chapel", types: []string{"point_of_interest", "church"}, want: KindChurch},
		{name: "attraction tag", venue: "鎌倉大仏", types: []string{"tourist_attraction"}, want: KindAttraction},
		{name: "generic", venue: "旧道", types: []string{"route"}, want: KindGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.venue, tt.types))
		})
	}
}

func TestDifficultyOf(t *testing.T) {
	tests := []struct {
		venue string
		want  drivequiz.Difficulty
	}{
		{"鎌倉大仏", drivequiz.DifficultyElementary},
		{"小田原城", drivequiz.DifficultyElementary},
		{"報国寺", drivequiz.DifficultyElementary},
		{"神奈川県立歴史博物館", drivequiz.DifficultyMiddle},
		{"鶴岡八幡宮", drivequiz.DifficultyHigh},
		{"", drivequiz.DifficultyHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DifficultyOf(tt.venue), tt.venue)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	types := []string{"tourist_attraction", "place_of_worship"}

	d1, b1 := Classify("長谷寺", types)
	d2, b2 := Classify("長谷寺", types)

	assert.Equal(t, d1, d2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "長谷寺は歴史ある寺院で、多くの参拝者が訪れます。", d1)
}

func TestDescribeGeneric(t *testing.T) {
	assert.Equal(t, "旧道は歴史的に重要な場所として知られています。", Describe("旧道", nil))
}

func TestApply(t *testing.T) {
	spot := Apply(drivequiz.HistoricalSpot{PlaceID: "p1", Name: "小田原城"})

	assert.Equal(t, drivequiz.DifficultyElementary, spot.Difficulty)
	assert.Contains(t, spot.Description, "小田原城")
	assert.Equal(t, "p1", spot.PlaceID)
}
