package brackets

import (
	"math/rand"
	"testing"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refs(ids ...string) []models.CompetitorRef {
	out := make([]models.CompetitorRef, len(ids))
	for i, id := range ids {
		out[i] = models.CompetitorRef{ID: id, Name: id}
	}
	return out
}

func TestPairRound(t *testing.T) {
	tests := []struct {
		name         string
		participants []models.CompetitorRef
		wantMatches  int
		wantBye      string
	}{
		{name: "two players", participants: refs("a", "b"), wantMatches: 1},
		{name: "three players tail bye", participants: refs("a", "b", "c"), wantMatches: 1, wantBye: "c"},
		{name: "four players", participants: refs("a", "b", "c", "d"), wantMatches: 2},
		{name: "five players tail bye", participants: refs("a", "b", "c", "d", "e"), wantMatches: 2, wantBye: "e"},
		{name: "single player", participants: refs("a"), wantMatches: 0, wantBye: "a"},
		{name: "empty round", participants: nil, wantMatches: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairings := PairRound(tt.participants)

			wantPositions := (len(tt.participants) + 1) / 2
			require.Len(t, pairings, wantPositions)

			matches := 0
			byeID := ""
			for _, p := range pairings {
				if p.IsBye {
					byeID = p.P1.ID
					continue
				}
				matches++
			}
			assert.Equal(t, tt.wantMatches, matches)
			assert.Equal(t, tt.wantBye, byeID)
		})
	}
}

func TestPairRoundOrder(t *testing.T) {
	pairings := PairRound(refs("a", "b", "c", "d"))
	require.Len(t, pairings, 2)
	assert.Equal(t, "a", pairings[0].P1.ID)
	assert.Equal(t, "b", pairings[0].P2.ID)
	assert.Equal(t, "c", pairings[1].P1.ID)
	assert.Equal(t, "d", pairings[1].P2.ID)
}

func TestShufflePreservesParticipants(t *testing.T) {
	original := refs("a", "b", "c", "d", "e")
	snapshot := refs("a", "b", "c", "d", "e")

	shuffled := Shuffle(rand.New(rand.NewSource(7)), original)

	// Исходный список не тронут, состав совпадает.
	assert.Equal(t, snapshot, original)
	assert.ElementsMatch(t, original, shuffled)
}

func TestShuffleDeterministicPerSeed(t *testing.T) {
	participants := refs("a", "b", "c", "d", "e", "f")

	first := Shuffle(rand.New(rand.NewSource(7)), participants)
	second := Shuffle(rand.New(rand.NewSource(7)), participants)
	assert.Equal(t, first, second)
}
