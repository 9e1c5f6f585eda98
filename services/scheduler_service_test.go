package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerStartsDueTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	startAt := env.clock.Now().Add(time.Hour)
	cup, err := env.registry.Create(ctx, "night-cup", ref("a-competitor"), models.TournamentConfig{
		MaxParticipants: 4,
		ScheduledStart:  &startAt,
	})
	require.NoError(t, err)
	require.NoError(t, env.registry.Join(ctx, "night-cup", ref("b-competitor")))

	scheduler := NewScheduler(env.registry, nil)

	scheduler.Tick(ctx)
	assert.Equal(t, models.TournamentStatusWaiting, cup.Status())

	env.clock.Advance(2 * time.Hour)
	scheduler.Tick(ctx)
	assert.Equal(t, models.TournamentStatusInProgress, cup.Status())
}

func TestSchedulerPostponesUnderfilledStart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	startAt := env.clock.Now().Add(-time.Minute)
	cup, err := env.registry.Create(ctx, "empty-cup", ref("a-competitor"), models.TournamentConfig{
		MaxParticipants: 4,
		ScheduledStart:  &startAt,
	})
	require.NoError(t, err)

	scheduler := NewScheduler(env.registry, nil)
	scheduler.Tick(ctx)

	// Один участник: старт откладывается, турнир остаётся открытым.
	assert.Equal(t, models.TournamentStatusWaiting, cup.Status())

	require.NoError(t, env.registry.Join(ctx, "empty-cup", ref("b-competitor")))
	scheduler.Tick(ctx)
	assert.Equal(t, models.TournamentStatusInProgress, cup.Status())
}

func TestSchedulerIgnoresManualStarts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cup := newCup(t, env, "manual-cup", 2)

	scheduler := NewScheduler(env.registry, nil)
	env.clock.Advance(24 * time.Hour)
	scheduler.Tick(ctx)

	// Без назначенного времени автозапуска нет.
	assert.Equal(t, models.TournamentStatusWaiting, cup.Status())
}

func TestSchedulerSpawnsRecurringTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scheduler := NewScheduler(env.registry, nil)

	require.NoError(t, scheduler.AddTemplate(ctx, models.TournamentTemplate{
		Name:            "daily",
		MaxParticipants: 8,
		Host:            ref("h-competitor"),
		Period:          time.Hour,
		NextRun:         env.clock.Now(),
	}))

	scheduler.Tick(ctx)

	spawned, found := env.registry.Get("daily-1")
	require.True(t, found)
	assert.Equal(t, "h-competitor", spawned.HostID())

	templates := scheduler.ListTemplates()
	require.Len(t, templates, 1)
	assert.Equal(t, 1, templates[0].Runs)
	assert.Equal(t, env.clock.Now().Add(time.Hour), templates[0].NextRun)

	// До следующего дедлайна копий больше не появляется.
	scheduler.Tick(ctx)
	_, found = env.registry.Get("daily-2")
	assert.False(t, found)
}

func TestSchedulerAdvancesDeadlineOnSpawnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scheduler := NewScheduler(env.registry, nil)

	// Хост шаблона уже занят в другом турнире.
	newCup(t, env, "busy-cup", 2)
	require.NoError(t, scheduler.AddTemplate(ctx, models.TournamentTemplate{
		Name:            "weekly",
		MaxParticipants: 8,
		Host:            ref("a-competitor"),
		Period:          time.Hour,
		NextRun:         env.clock.Now(),
	}))

	scheduler.Tick(ctx)

	_, found := env.registry.Get("weekly-1")
	assert.False(t, found)
	templates := scheduler.ListTemplates()
	require.Len(t, templates, 1)
	assert.Equal(t, 0, templates[0].Runs)
	// Дедлайн сдвинут, чтобы неудачный шаблон не молотил на каждом тике.
	assert.Equal(t, env.clock.Now().Add(time.Hour), templates[0].NextRun)
}

func TestTemplateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	scheduler := NewScheduler(env.registry, nil)

	base := models.TournamentTemplate{
		Name:            "daily",
		MaxParticipants: 8,
		Host:            ref("h-competitor"),
		Period:          time.Hour,
	}

	missing := base
	missing.Name = ""
	require.ErrorIs(t, scheduler.AddTemplate(ctx, missing), ErrTournamentNameRequired)

	tiny := base
	tiny.MaxParticipants = 1
	require.ErrorIs(t, scheduler.AddTemplate(ctx, tiny), ErrTournamentInvalidCapacity)

	frozen := base
	frozen.Period = 0
	require.ErrorIs(t, scheduler.AddTemplate(ctx, frozen), ErrTemplateInvalidPeriod)

	require.NoError(t, scheduler.AddTemplate(ctx, base))
	require.ErrorIs(t, scheduler.AddTemplate(ctx, base), ErrTemplateNameConflict)

	require.ErrorIs(t, scheduler.RemoveTemplate(ctx, "ghost"), ErrTemplateNotFound)
	require.NoError(t, scheduler.RemoveTemplate(ctx, "daily"))
	assert.Empty(t, scheduler.ListTemplates())
}
