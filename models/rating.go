package models

// RatingRecord — рейтинг участника. Живёт независимо от турниров.
// Seq задаёт порядок первого появления и используется для стабильного
// разрешения ничьих при сортировке по рейтингу.
type RatingRecord struct {
	CompetitorID string `json:"competitor_id"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Seq          int64  `json:"-"`
}
