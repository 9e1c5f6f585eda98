package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Dosada05/arena-tournaments/brackets"
	"github.com/Dosada05/arena-tournaments/models"
)

// RelocateDestination — куда сервис перемещения должен отправить участника.
type RelocateDestination string

const (
	RelocateEntry RelocateDestination = "entry"
	RelocateExit  RelocateDestination = "exit"
)

// Внешние коллабораторы ядра. Ядро их потребляет, но не реализует.

type EligibilityChecker interface {
	IsEligible(ctx context.Context, competitorID string, ruleset json.RawMessage) bool
}

// Relocator перемещает участника на арену или с неё. Best effort: вызывающая
// сторона логирует ошибку и повторяет один раз после короткой паузы.
type Relocator interface {
	Relocate(ctx context.Context, competitorID string, destination RelocateDestination) error
}

// BattleEngine проводит сам поединок. Результат возвращается асинхронно
// через BattleOutcomeAdapter тем же путём, что и ручные результаты.
type BattleEngine interface {
	RequestBattle(ctx context.Context, a, b models.CompetitorRef) error
}

type PresenceChecker interface {
	IsOnline(competitorID string) bool
}

// Notifier — fire-and-forget уведомления; ошибки не влияют на результат
// операций ядра.
type Notifier interface {
	Notify(competitorID, message string)
	Broadcast(tournamentName, message string)
}

type RewardDispenser interface {
	Grant(ctx context.Context, competitorID string, rank int) error
}

// Economy — опциональный порт. nil означает, что экономика не подключена;
// это нормальное состояние конфигурации, а не ошибка.
type Economy interface {
	Withdraw(ctx context.Context, competitorID string, amount int) error
}

// RatingUpdater применяет результат матча к рейтингам обоих сторон.
type RatingUpdater interface {
	ApplyResult(ctx context.Context, winner, loser models.CompetitorRef)
}

// ReadyResetter сбрасывает флаги готовности, когда матч стартует или
// завершается, чтобы готовность не перетекала в следующий матч.
type ReadyResetter interface {
	ClearReady(competitorIDs ...string)
}

// ResultArchiver загружает итоговый протокол турнира в объектное хранилище.
type ResultArchiver interface {
	ArchiveResults(ctx context.Context, tournamentName string, summary []byte) (string, error)
}

// RoomBroadcaster — рассылка событий зрителям комнаты турнира.
type RoomBroadcaster interface {
	BroadcastToRoom(room string, message brackets.EventMessage)
}

// Deps собирает коллабораторов и окружение, общие для турниров и реестра.
// Nil-поля заменяются на no-op реализации в normalize.
type Deps struct {
	Eligibility EligibilityChecker
	Relocator   Relocator
	Battle      BattleEngine
	Presence    PresenceChecker
	Notifier    Notifier
	Rewards     RewardDispenser
	Economy     Economy // опционально
	Ratings     RatingUpdater
	Ready       ReadyResetter
	Archive     ResultArchiver // опционально
	Events      RoomBroadcaster

	Logger *slog.Logger
	Rand   *rand.Rand
	Now    func() time.Time

	// Пауза перед повторной попыткой перемещения.
	RelocateRetryDelay time.Duration
}

func (d *Deps) normalize() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.RelocateRetryDelay == 0 {
		d.RelocateRetryDelay = 2 * time.Second
	}
	if d.Eligibility == nil {
		d.Eligibility = allowAllEligibility{}
	}
	if d.Relocator == nil {
		d.Relocator = noopRelocator{}
	}
	if d.Battle == nil {
		d.Battle = noopBattleEngine{}
	}
	if d.Presence == nil {
		d.Presence = alwaysOnline{}
	}
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Rewards == nil {
		d.Rewards = noopRewards{}
	}
	if d.Ratings == nil {
		d.Ratings = noopRatings{}
	}
	if d.Ready == nil {
		d.Ready = noopReady{}
	}
	if d.Events == nil {
		d.Events = noopEvents{}
	}
}

func (d *Deps) notify(competitorID, message string) {
	d.Notifier.Notify(competitorID, message)
}

func (d *Deps) broadcast(tournamentName, message string) {
	d.Notifier.Broadcast(tournamentName, message)
}

func (d *Deps) event(room, eventType string, payload interface{}) {
	d.Events.BroadcastToRoom(room, brackets.EventMessage{Type: eventType, Payload: payload})
}

type allowAllEligibility struct{}

func (allowAllEligibility) IsEligible(context.Context, string, json.RawMessage) bool { return true }

type noopRelocator struct{}

func (noopRelocator) Relocate(context.Context, string, RelocateDestination) error { return nil }

type noopBattleEngine struct{}

func (noopBattleEngine) RequestBattle(context.Context, models.CompetitorRef, models.CompetitorRef) error {
	return nil
}

type alwaysOnline struct{}

func (alwaysOnline) IsOnline(string) bool { return true }

type noopNotifier struct{}

func (noopNotifier) Notify(string, string)    {}
func (noopNotifier) Broadcast(string, string) {}

type noopRewards struct{}

func (noopRewards) Grant(context.Context, string, int) error { return nil }

type noopRatings struct{}

func (noopRatings) ApplyResult(context.Context, models.CompetitorRef, models.CompetitorRef) {}

type noopReady struct{}

func (noopReady) ClearReady(...string) {}

type noopEvents struct{}

func (noopEvents) BroadcastToRoom(string, brackets.EventMessage) {}
