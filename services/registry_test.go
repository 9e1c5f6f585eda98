package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type denyAllEligibility struct{}

func (denyAllEligibility) IsEligible(context.Context, string, json.RawMessage) bool { return false }

type fakeEconomy struct {
	failing bool
	charged map[string]int
}

func (f *fakeEconomy) Withdraw(_ context.Context, competitorID string, amount int) error {
	if f.failing {
		return errors.New("insufficient funds")
	}
	if f.charged == nil {
		f.charged = make(map[string]int)
	}
	f.charged[competitorID] += amount
	return nil
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.Create(ctx, "", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 4})
	require.ErrorIs(t, err, ErrTournamentNameRequired)

	_, err = env.registry.Create(ctx, "cup", models.CompetitorRef{}, models.TournamentConfig{MaxParticipants: 4})
	require.ErrorIs(t, err, ErrCompetitorIDRequired)

	_, err = env.registry.Create(ctx, "cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 1})
	require.ErrorIs(t, err, ErrTournamentInvalidCapacity)
}

func TestCreateConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.Create(ctx, "cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 4})
	require.NoError(t, err)

	_, err = env.registry.Create(ctx, "cup", ref("b-competitor"), models.TournamentConfig{MaxParticipants: 4})
	require.ErrorIs(t, err, ErrTournamentNameConflict)

	// Хост уже состоит в турнире и не может открыть второй.
	_, err = env.registry.Create(ctx, "another-cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 4})
	require.ErrorIs(t, err, ErrAlreadyInTournament)
}

func TestJoinDistinctFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.registry.Join(ctx, "ghost", ref("a-competitor")), ErrTournamentNotFound)

	cup := newCup(t, env, "cup", 2)
	require.ErrorIs(t, env.registry.Join(ctx, "cup", ref("c-competitor")), ErrTournamentFull)

	_, err := env.registry.Create(ctx, "side-cup", ref("x-competitor"), models.TournamentConfig{MaxParticipants: 4})
	require.NoError(t, err)
	require.ErrorIs(t, env.registry.Join(ctx, "side-cup", ref("b-competitor")), ErrAlreadyInTournament)

	require.NoError(t, cup.Start(ctx))
	require.ErrorIs(t, env.registry.Join(ctx, "cup", ref("d-competitor")), ErrTournamentNotWaiting)
}

func TestJoinEligibilityAndEntryFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.registry.Create(ctx, "paid-cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 4, EntryFee: 50})
	require.NoError(t, err)

	// Без подключённой экономики взнос не взимается.
	require.NoError(t, env.registry.Join(ctx, "paid-cup", ref("b-competitor")))

	economy := &fakeEconomy{failing: true}
	env.registry.Deps().Economy = economy
	err = env.registry.Join(ctx, "paid-cup", ref("c-competitor"))
	require.ErrorIs(t, err, ErrEntryFeeNotPaid)

	economy.failing = false
	require.NoError(t, env.registry.Join(ctx, "paid-cup", ref("c-competitor")))
	assert.Equal(t, 50, economy.charged["c-competitor"])

	env.registry.Deps().Eligibility = denyAllEligibility{}
	require.ErrorIs(t, env.registry.Join(ctx, "paid-cup", ref("d-competitor")), ErrCompetitorNotEligible)
}

func TestJoinRejectedBeforeEntryFeeCharge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	economy := &fakeEconomy{}
	env.registry.Deps().Economy = economy

	_, err := env.registry.Create(ctx, "full-cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 2, EntryFee: 50})
	require.NoError(t, err)
	require.NoError(t, env.registry.Join(ctx, "full-cup", ref("b-competitor")))
	assert.Equal(t, 50, economy.charged["b-competitor"])

	// Вступление в заполненный турнир отклоняется до списания взноса.
	require.ErrorIs(t, env.registry.Join(ctx, "full-cup", ref("c-competitor")), ErrTournamentFull)
	assert.Equal(t, 0, economy.charged["c-competitor"])
}

func TestLeaveUnknownCompetitor(t *testing.T) {
	env := newTestEnv(t)
	require.ErrorIs(t, env.registry.Leave(context.Background(), "nobody"), ErrCompetitorNotInTournament)
}

func TestDeletePurgesMappings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cup := newCup(t, env, "cup", 2)
	require.NoError(t, cup.Start(ctx))

	require.NoError(t, env.registry.Delete(ctx, "cup"))
	require.ErrorIs(t, env.registry.Delete(ctx, "cup"), ErrTournamentNotFound)

	_, found := env.registry.Get("cup")
	assert.False(t, found)
	_, found = env.registry.TournamentOf("a-competitor")
	assert.False(t, found)

	// Участники освобождены и могут открыть новый турнир с тем же именем.
	_, err := env.registry.Create(ctx, "cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 2})
	require.NoError(t, err)
	require.NoError(t, env.registry.Join(ctx, "cup", ref("b-competitor")))
}

func TestStaleMappingClearedAfterEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cup := newCup(t, env, "cup", 2)
	require.NoError(t, cup.Start(ctx))

	m := currentMatches(cup)[0]
	require.NoError(t, cup.RecordResult(ctx, m.P1ID, m.P2ID))
	require.Equal(t, models.TournamentStatusEnded, cup.Status())

	// Турнир завершён, но не удалён: запись устарела и не блокирует.
	_, err := env.registry.Create(ctx, "next-cup", ref("a-competitor"), models.TournamentConfig{MaxParticipants: 2})
	require.NoError(t, err)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	small := newCup(t, env, "small-cup", 2)
	newCup(t, env, "big-cup", 4, 2)
	require.NoError(t, small.Start(ctx))

	all := env.registry.List(ListFilter{})
	require.Len(t, all, 2)

	waiting := models.TournamentStatusWaiting
	views := env.registry.List(ListFilter{Status: &waiting})
	require.Len(t, views, 1)
	assert.Equal(t, "big-cup", views[0].Name)

	min := 3
	views = env.registry.List(ListFilter{MinParticipants: &min})
	require.Len(t, views, 1)
	assert.Equal(t, "big-cup", views[0].Name)

	max := 2
	views = env.registry.List(ListFilter{MaxParticipants: &max})
	require.Len(t, views, 1)
	assert.Equal(t, "small-cup", views[0].Name)
}

func TestListInProgressAndWaiting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	running := newCup(t, env, "running-cup", 2)
	newCup(t, env, "idle-cup", 4, 2)
	require.NoError(t, running.Start(ctx))

	inProgress := env.registry.ListInProgress()
	require.Len(t, inProgress, 1)
	assert.Equal(t, "running-cup", inProgress[0].Name())

	waiting := env.registry.ListWaiting()
	require.Len(t, waiting, 1)
	assert.Equal(t, "idle-cup", waiting[0].Name())
}
