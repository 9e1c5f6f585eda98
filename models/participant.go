package models

// Participant — запись участника внутри одного турнира. Принадлежит турниру
// и удаляется вместе с ним; между раундами переживают только счётчики.
type Participant struct {
	CompetitorID string `json:"competitor_id"`
	Name         string `json:"name"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

func (p Participant) Ref() CompetitorRef {
	return CompetitorRef{ID: p.CompetitorID, Name: p.Name}
}
