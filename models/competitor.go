package models

// CompetitorRef ссылается на участника арены: стабильный UUID плюс снимок
// отображаемого имени на момент регистрации. После создания не изменяется.
type CompetitorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
