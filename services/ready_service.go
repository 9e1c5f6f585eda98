package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// ReadyService — шлюз взаимной готовности. Матч переходит из scheduled в
// in_progress только после того, как обе стороны отметились. Карта флагов
// глобальная по id участника: участник состоит максимум в одном турнире.
type ReadyService struct {
	mu    sync.Mutex
	ready map[string]bool

	registry *Registry
	deps     *Deps
}

func NewReadyService(registry *Registry) *ReadyService {
	return &ReadyService{
		ready:    make(map[string]bool),
		registry: registry,
		deps:     registry.Deps(),
	}
}

// MarkReady отмечает готовность участника к его запланированному матчу.
// Если соперник уже готов, оба флага сбрасываются и матч стартует; иначе
// участник ждёт, а сопернику отправляется напоминание.
func (s *ReadyService) MarkReady(ctx context.Context, competitorID string) error {
	t, ok := s.registry.TournamentOf(competitorID)
	if !ok {
		return ErrCompetitorNotInTournament
	}
	matchID, opponent, err := t.ScheduledMatchOf(competitorID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.ready[opponent.ID] {
		delete(s.ready, opponent.ID)
		delete(s.ready, competitorID)
		s.mu.Unlock()

		if err := t.StartMatch(ctx, matchID); err != nil {
			// Матч успел разрешиться между проверкой и стартом.
			s.deps.Logger.Warn("ready-check could not start match",
				slog.String("tournament", t.Name()),
				slog.String("match_id", matchID),
				slog.Any("error", err))
			return err
		}
		return nil
	}

	alreadyReady := s.ready[competitorID]
	s.ready[competitorID] = true
	s.mu.Unlock()

	if !alreadyReady {
		s.deps.notify(competitorID, fmt.Sprintf("waiting for %s to get ready", opponent.Name))
		s.deps.notify(opponent.ID, "your opponent is ready, mark yourself ready to begin the match")
	}
	return nil
}

// IsReady — для тестов и диагностики.
func (s *ReadyService) IsReady(competitorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready[competitorID]
}

// ClearReady сбрасывает флаги готовности. Вызывается турниром при старте и
// завершении матчей, чтобы готовность не утекала в следующий матч.
func (s *ReadyService) ClearReady(competitorIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range competitorIDs {
		delete(s.ready, id)
	}
}
