package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEloDeltas(t *testing.T) {
	tests := []struct {
		name          string
		winnerRating  int
		loserRating   int
		k             int
		expectedWin   int
		expectedLoss  int
	}{
		{name: "equal ratings split K", winnerRating: 1000, loserRating: 1000, k: 32, expectedWin: 16, expectedLoss: 16},
		{name: "underdog win approaches K", winnerRating: 1000, loserRating: 1400, k: 32, expectedWin: 29, expectedLoss: 29},
		{name: "favorite win yields little", winnerRating: 1400, loserRating: 1000, k: 32, expectedWin: 3, expectedLoss: 3},
		{name: "equal ratings K=16", winnerRating: 1200, loserRating: 1200, k: 16, expectedWin: 8, expectedLoss: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dw, dl := EloDeltas(tt.winnerRating, tt.loserRating, tt.k)
			assert.Equal(t, tt.expectedWin, dw)
			assert.Equal(t, tt.expectedLoss, dl)
		})
	}
}

func TestApplyResultCreatesRecordsLazily(t *testing.T) {
	s := NewRatingService(nil, nil, 32, 1000, discardLogger())

	_, ok := s.Get("a-competitor")
	require.False(t, ok)

	s.ApplyResult(context.Background(), ref("a-competitor"), ref("b-competitor"))

	winner, ok := s.Get("a-competitor")
	require.True(t, ok)
	assert.Equal(t, 1016, winner.Rating)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Losses)

	loser, ok := s.Get("b-competitor")
	require.True(t, ok)
	assert.Equal(t, 984, loser.Rating)
	assert.Equal(t, 0, loser.Wins)
	assert.Equal(t, 1, loser.Losses)
}

func TestApplyResultRatingFloor(t *testing.T) {
	s := NewRatingService(nil, nil, 32, 10, discardLogger())

	s.ApplyResult(context.Background(), ref("a-competitor"), ref("b-competitor"))

	loser, ok := s.Get("b-competitor")
	require.True(t, ok)
	assert.Equal(t, 0, loser.Rating)
	assert.Equal(t, 1, loser.Losses)
}

func TestLeaderboardOrderAndTies(t *testing.T) {
	s := NewRatingService(nil, nil, 32, 1000, discardLogger())
	ctx := context.Background()

	// Две независимые пары: оба победителя финишируют с 1016.
	s.ApplyResult(ctx, ref("a-competitor"), ref("b-competitor"))
	s.ApplyResult(ctx, ref("c-competitor"), ref("d-competitor"))

	board := s.Leaderboard()
	require.Len(t, board, 4)
	assert.Equal(t, "a-competitor", board[0].CompetitorID)
	assert.Equal(t, "c-competitor", board[1].CompetitorID)
	assert.Equal(t, board[0].Rating, board[1].Rating)
	// Проигравшие позади, в том же порядке появления.
	assert.Equal(t, "b-competitor", board[2].CompetitorID)
	assert.Equal(t, "d-competitor", board[3].CompetitorID)
}

func TestResetGrantsRewardsAndRestoresBaseline(t *testing.T) {
	rewards := newFakeRewards()
	s := NewRatingService(nil, rewards, 32, 1000, discardLogger())
	ctx := context.Background()

	s.ApplyResult(ctx, ref("a-competitor"), ref("b-competitor"))
	s.ApplyResult(ctx, ref("a-competitor"), ref("c-competitor"))

	top, err := s.Reset(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a-competitor", top[0].CompetitorID)

	// Награды по местам финального среза.
	assert.Equal(t, 1, rewards.grants["a-competitor"])
	assert.Equal(t, 2, rewards.grants[top[1].CompetitorID])

	// Все рейтинги вернулись к базовому, счётчики историчны.
	for _, rec := range s.Leaderboard() {
		assert.Equal(t, 1000, rec.Rating)
	}
	winner, ok := s.Get("a-competitor")
	require.True(t, ok)
	assert.Equal(t, 2, winner.Wins)
}
