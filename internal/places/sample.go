package places

import "github.com/famolydrive/drivequiz/internal/drivequiz"

// SampleSpots returns the two Kamakura landmarks served when a search turns
// up nothing. A fresh slice is returned on every call.
func SampleSpots() []drivequiz.HistoricalSpot {
	return []drivequiz.HistoricalSpot{
		{
			PlaceID:     "sample_1",
			Name:        "鎌倉大仏",
			Address:     "神奈川県鎌倉市長谷",
			Location:    drivequiz.Coordinate{Lat: 35.3169, Lng: 139.5359},
			Types:       []string{"tourist_attraction"},
			Description: "鎌倉大仏は13世紀に建立された国宝の仏像です。",
			Difficulty:  drivequiz.DifficultyElementary,
		},
		{
			PlaceID:     "sample_2",
			Name:        "鶴岡八幡宮",
			Address:     "神奈川県鎌倉市雪ノ下",
			Location:    drivequiz.Coordinate{Lat: 35.3249, Lng: 139.5565},
			Types:       []string{"shrine"},
			Description: "鶴岡八幡宮は鎌倉の守護神として古くから信仰されています。",
			Difficulty:  drivequiz.DifficultyMiddle,
		},
	}
}
