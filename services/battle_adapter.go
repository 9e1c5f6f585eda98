package services

import (
	"context"
	"log/slog"
)

// BattleOutcomeAdapter переводит сигнал завершения боя от внешнего движка в
// обычный RecordResult: тот же путь, что у ручных результатов и у монитора
// таймаутов.
type BattleOutcomeAdapter struct {
	registry *Registry
	logger   *slog.Logger
}

func NewBattleOutcomeAdapter(registry *Registry) *BattleOutcomeAdapter {
	return &BattleOutcomeAdapter{
		registry: registry,
		logger:   registry.Deps().Logger,
	}
}

// HandleOutcome фиксирует пару победитель/проигравший, о которой сообщил
// движок боёв.
func (a *BattleOutcomeAdapter) HandleOutcome(ctx context.Context, winnerID, loserID string) error {
	t, ok := a.registry.TournamentOf(winnerID)
	if !ok {
		t, ok = a.registry.TournamentOf(loserID)
	}
	if !ok {
		return ErrCompetitorNotInTournament
	}

	if err := t.RecordResult(ctx, winnerID, loserID); err != nil {
		a.logger.Warn("battle outcome rejected",
			slog.String("tournament", t.Name()),
			slog.String("winner_id", winnerID),
			slog.String("loser_id", loserID),
			slog.Any("error", err))
		return err
	}
	return nil
}
