package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// TimeoutMonitor периодически ищет матчи, зависшие в in_progress дольше
// таймаута, и принудительно разрешает их через обычный RecordResult, чтобы
// рейтинг, выбывание и продвижение раунда сработали как при органичном
// результате.
type TimeoutMonitor struct {
	registry *Registry
	timeout  time.Duration
	interval time.Duration

	presence PresenceChecker
	logger   *slog.Logger
	now      func() time.Time
}

func NewTimeoutMonitor(registry *Registry, timeout, interval time.Duration) *TimeoutMonitor {
	deps := registry.Deps()
	return &TimeoutMonitor{
		registry: registry,
		timeout:  timeout,
		interval: interval,
		presence: deps.Presence,
		logger:   deps.Logger,
		now:      deps.Now,
	}
}

// Run гоняет Tick по тикеру до отмены контекста.
func (m *TimeoutMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("timeout monitor started",
		slog.Duration("interval", m.interval),
		slog.Duration("match_timeout", m.timeout))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("timeout monitor stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick — один проход по всем активным турнирам. Паника или ошибка в одном
// турнире не прерывает обход остальных.
func (m *TimeoutMonitor) Tick(ctx context.Context) {
	tournaments := m.registry.ListInProgress()
	if len(tournaments) == 0 {
		return
	}

	var g errgroup.Group
	for _, t := range tournaments {
		t := t
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					m.logger.Error("panic while scanning tournament",
						slog.String("tournament", t.Name()),
						slog.Any("panic", p))
				}
			}()
			m.resolveStuck(ctx, t)
			return nil
		})
	}
	_ = g.Wait()
}

func (m *TimeoutMonitor) resolveStuck(ctx context.Context, t *Tournament) {
	stuck := t.StuckMatches(m.now(), m.timeout)
	for _, s := range stuck {
		winnerID, loserID := m.chooseWinner(s.P1ID, s.P2ID)
		m.logger.Warn("force-resolving stuck match",
			slog.String("tournament", t.Name()),
			slog.String("match_id", s.MatchID),
			slog.String("winner_id", winnerID),
			slog.Time("stuck_since", s.Since))

		if err := t.RecordResult(ctx, winnerID, loserID); err != nil {
			m.logger.Error("failed to resolve stuck match",
				slog.String("tournament", t.Name()),
				slog.String("match_id", s.MatchID),
				slog.Any("error", err))
		}
	}
}

// chooseWinner — детерминированный выбор победителя зависшего матча:
// остающаяся на связи сторона побеждает отвалившуюся; если обе (или ни
// одна) на связи, побеждает лексикографически меньший id. Это явный
// произвольный tie-break, а не оценка силы.
func (m *TimeoutMonitor) chooseWinner(aID, bID string) (winnerID, loserID string) {
	aOnline := m.presence.IsOnline(aID)
	bOnline := m.presence.IsOnline(bID)

	switch {
	case aOnline && !bOnline:
		return aID, bID
	case bOnline && !aOnline:
		return bID, aID
	case aID < bID:
		return aID, bID
	default:
		return bID, aID
	}
}
