package services

import (
	"context"
	"testing"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleOutcomeRoutesToTournament(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cup := newCup(t, env, "arena-cup", 2)
	require.NoError(t, cup.Start(ctx))
	m := currentMatches(cup)[0]
	bothReady(t, env, m)

	adapter := NewBattleOutcomeAdapter(env.registry)
	require.NoError(t, adapter.HandleOutcome(ctx, m.P2ID, m.P1ID))

	require.Equal(t, models.TournamentStatusEnded, cup.Status())
	winner := cup.Winner()
	require.NotNil(t, winner)
	assert.Equal(t, m.P2ID, *winner)
}

func TestHandleOutcomeUnknownCompetitors(t *testing.T) {
	env := newTestEnv(t)
	adapter := NewBattleOutcomeAdapter(env.registry)
	err := adapter.HandleOutcome(context.Background(), "nobody", "no-one")
	require.ErrorIs(t, err, ErrCompetitorNotInTournament)
}

func TestHandleOutcomeResolvesByLoserLookup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cup := newCup(t, env, "lookup-cup", 2)
	require.NoError(t, cup.Start(ctx))
	m := currentMatches(cup)[0]

	// Победитель реестру неизвестен, но матч находится через проигравшего.
	adapter := NewBattleOutcomeAdapter(env.registry)
	err := adapter.HandleOutcome(ctx, "stranger", m.P1ID)
	require.ErrorIs(t, err, ErrMatchNotFound)
}
