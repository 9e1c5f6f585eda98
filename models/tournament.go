package models

import (
	"encoding/json"
	"time"
)

// TournamentStatus — статусы турнира. Переходы строго монотонны:
// waiting -> in_progress -> ended.
type TournamentStatus string

const (
	TournamentStatusWaiting    TournamentStatus = "waiting"
	TournamentStatusInProgress TournamentStatus = "in_progress"
	TournamentStatusEnded      TournamentStatus = "ended"
)

// TournamentView — снимок состояния турнира для HTTP-ответов и
// websocket-рассылок. Само состояние живёт в services.Tournament.
type TournamentView struct {
	Name             string           `json:"name"`
	HostID           string           `json:"host_id"`
	Status           TournamentStatus `json:"status"`
	MaxParticipants  int              `json:"max_participants"`
	ParticipantCount int              `json:"participant_count"`
	ActiveCount      int              `json:"active_count"`
	CurrentRound     int              `json:"current_round"`
	Participants     []Participant    `json:"participants,omitempty"`
	Eliminated       []string         `json:"eliminated,omitempty"`
	Matches          []Match          `json:"matches,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ScheduledStart   *time.Time       `json:"scheduled_start,omitempty"`
	StartedAt        *time.Time       `json:"started_at,omitempty"`
	EndedAt          *time.Time       `json:"ended_at,omitempty"`
	WinnerID         *string          `json:"winner_id,omitempty"`
}

// TournamentConfig — параметры, задаваемые при создании турнира.
// EligibilityRuleset непрозрачен для ядра и целиком передаётся
// сервису допуска.
type TournamentConfig struct {
	MaxParticipants int             `json:"max_participants"`
	ScheduledStart  *time.Time      `json:"scheduled_start,omitempty"`
	Ruleset         json.RawMessage `json:"ruleset,omitempty"`
	EntryFee        int             `json:"entry_fee,omitempty"`
}
