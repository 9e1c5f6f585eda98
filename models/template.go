package models

import "time"

// TournamentTemplate описывает регулярный турнир: по расписанию из шаблона
// создаётся новый турнир с именем "<Name>-<Runs+1>".
type TournamentTemplate struct {
	Name            string        `json:"name"`
	MaxParticipants int           `json:"max_participants"`
	Host            CompetitorRef `json:"host"`
	Period          time.Duration `json:"period"`
	NextRun         time.Time     `json:"next_run"`
	Runs            int           `json:"runs"`
}
