package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "scheduled"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCanceled   MatchStatus = "canceled"
)

// Match — поединок двух участников текущего раунда.
// Инвариант: WinnerID установлен тогда и только тогда, когда статус completed,
// и всегда равен одному из двух участников.
type Match struct {
	ID        string      `json:"id"`
	P1ID      string      `json:"p1_id"`
	P2ID      string      `json:"p2_id"`
	P1Name    string      `json:"p1_name"`
	P2Name    string      `json:"p2_name"`
	Status    MatchStatus `json:"status"`
	WinnerID  *string     `json:"winner_id,omitempty"`
	StartedAt *time.Time  `json:"started_at,omitempty"`
}

func NewMatch(p1, p2 CompetitorRef) *Match {
	return &Match{
		ID:     uuid.NewString(),
		P1ID:   p1.ID,
		P2ID:   p2.ID,
		P1Name: p1.Name,
		P2Name: p2.Name,
		Status: MatchStatusScheduled,
	}
}

// Start переводит матч в in_progress и ставит отметку времени,
// по которой монитор таймаутов находит зависшие матчи.
func (m *Match) Start(now time.Time) {
	m.Status = MatchStatusInProgress
	m.StartedAt = &now
}

// Complete фиксирует победителя. Возвращает false без изменений, если матч
// уже разрешён или winnerID не принадлежит матчу.
func (m *Match) Complete(winnerID string) bool {
	if m.Resolved() {
		return false
	}
	if winnerID != m.P1ID && winnerID != m.P2ID {
		return false
	}
	m.Status = MatchStatusCompleted
	m.WinnerID = &winnerID
	return true
}

// Cancel безусловно отменяет матч (дисквалификации, снятие участника).
func (m *Match) Cancel() {
	m.Status = MatchStatusCanceled
	m.WinnerID = nil
}

// Resolved — матч больше не ждёт результата.
func (m *Match) Resolved() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusCanceled
}

func (m *Match) Involves(competitorID string) bool {
	return m.P1ID == competitorID || m.P2ID == competitorID
}

// OpponentOf возвращает соперника указанного участника.
func (m *Match) OpponentOf(competitorID string) (CompetitorRef, bool) {
	switch competitorID {
	case m.P1ID:
		return CompetitorRef{ID: m.P2ID, Name: m.P2Name}, true
	case m.P2ID:
		return CompetitorRef{ID: m.P1ID, Name: m.P1Name}, true
	default:
		return CompetitorRef{}, false
	}
}
