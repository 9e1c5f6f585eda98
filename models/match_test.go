package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLifecycle(t *testing.T) {
	a := CompetitorRef{ID: "a", Name: "Alpha"}
	b := CompetitorRef{ID: "b", Name: "Bravo"}
	m := NewMatch(a, b)

	require.NotEmpty(t, m.ID)
	assert.Equal(t, MatchStatusScheduled, m.Status)
	assert.False(t, m.Resolved())

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.Start(started)
	assert.Equal(t, MatchStatusInProgress, m.Status)
	require.NotNil(t, m.StartedAt)
	assert.Equal(t, started, *m.StartedAt)

	require.True(t, m.Complete("b"))
	assert.Equal(t, MatchStatusCompleted, m.Status)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, "b", *m.WinnerID)
	assert.True(t, m.Resolved())

	// Разрешённый матч не перезаписывается.
	assert.False(t, m.Complete("a"))
	assert.Equal(t, "b", *m.WinnerID)
}

func TestMatchCompleteRejectsOutsider(t *testing.T) {
	m := NewMatch(CompetitorRef{ID: "a"}, CompetitorRef{ID: "b"})
	assert.False(t, m.Complete("c"))
	assert.Equal(t, MatchStatusScheduled, m.Status)
}

func TestMatchCancelResolves(t *testing.T) {
	m := NewMatch(CompetitorRef{ID: "a"}, CompetitorRef{ID: "b"})
	m.Cancel()
	assert.Equal(t, MatchStatusCanceled, m.Status)
	assert.True(t, m.Resolved())
	assert.Nil(t, m.WinnerID)
}

func TestMatchOpponentOf(t *testing.T) {
	a := CompetitorRef{ID: "a", Name: "Alpha"}
	b := CompetitorRef{ID: "b", Name: "Bravo"}
	m := NewMatch(a, b)

	opp, ok := m.OpponentOf("a")
	require.True(t, ok)
	assert.Equal(t, b, opp)

	_, ok = m.OpponentOf("c")
	assert.False(t, ok)

	assert.True(t, m.Involves("a"))
	assert.True(t, m.Involves("b"))
	assert.False(t, m.Involves("c"))
}
