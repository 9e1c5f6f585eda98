package services

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeNotifier struct {
	mu         sync.Mutex
	personal   map[string][]string
	broadcasts []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{personal: make(map[string][]string)}
}

func (n *fakeNotifier) Notify(competitorID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.personal[competitorID] = append(n.personal[competitorID], message)
}

func (n *fakeNotifier) Broadcast(tournamentName, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, message)
}

func (n *fakeNotifier) hasBroadcastContaining(substr string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, message := range n.broadcasts {
		if strings.Contains(message, substr) {
			return true
		}
	}
	return false
}

type battleRequest struct {
	A, B models.CompetitorRef
}

type fakeBattleEngine struct {
	mu       sync.Mutex
	requests []battleRequest
}

func (f *fakeBattleEngine) RequestBattle(_ context.Context, a, b models.CompetitorRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, battleRequest{A: a, B: b})
	return nil
}

func (f *fakeBattleEngine) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakePresence struct {
	mu      sync.Mutex
	offline map[string]bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{offline: make(map[string]bool)}
}

func (f *fakePresence) IsOnline(competitorID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.offline[competitorID]
}

func (f *fakePresence) setOffline(competitorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline[competitorID] = true
}

type fakeRewards struct {
	mu     sync.Mutex
	grants map[string]int // competitorID -> rank
}

func newFakeRewards() *fakeRewards {
	return &fakeRewards{grants: make(map[string]int)}
}

func (f *fakeRewards) Grant(_ context.Context, competitorID string, rank int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.grants[competitorID] = rank
	return nil
}

type testEnv struct {
	clock    *fakeClock
	notifier *fakeNotifier
	battle   *fakeBattleEngine
	presence *fakePresence
	rewards  *fakeRewards
	ratings  *RatingService
	registry *Registry
	ready    *ReadyService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := discardLogger()
	env := &testEnv{
		clock:    &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		notifier: newFakeNotifier(),
		battle:   &fakeBattleEngine{},
		presence: newFakePresence(),
		rewards:  newFakeRewards(),
	}
	env.ratings = NewRatingService(nil, env.rewards, 32, 1000, logger)

	deps := &Deps{
		Battle:             env.battle,
		Presence:           env.presence,
		Notifier:           env.notifier,
		Rewards:            env.rewards,
		Ratings:            env.ratings,
		Logger:             logger,
		Rand:               rand.New(rand.NewSource(42)),
		Now:                env.clock.Now,
		RelocateRetryDelay: time.Millisecond,
	}
	env.registry = NewRegistry(deps)
	env.ready = NewReadyService(env.registry)
	deps.Ready = env.ready
	return env
}

func ref(id string) models.CompetitorRef {
	return models.CompetitorRef{ID: id, Name: "player-" + id}
}

// newCup создаёт и наполняет турнир на n участников с лексикографически
// упорядоченными id (a-competitor, b-competitor, ...); необязательный offset
// сдвигает стартовую букву, чтобы составы разных турниров не пересекались.
func newCup(t *testing.T, env *testEnv, name string, n int, offset ...int) *Tournament {
	t.Helper()

	ids := cupIDs(n, offset...)
	cup, err := env.registry.Create(context.Background(), name, ref(ids[0]), models.TournamentConfig{MaxParticipants: n})
	require.NoError(t, err)
	for _, id := range ids[1:] {
		require.NoError(t, env.registry.Join(context.Background(), name, ref(id)))
	}
	return cup
}

func cupIDs(n int, offset ...int) []string {
	start := 0
	if len(offset) > 0 {
		start = offset[0]
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a'+start+i)) + "-competitor"
	}
	return ids
}

// bothReady проводит обе стороны матча через шлюз готовности.
func bothReady(t *testing.T, env *testEnv, m models.Match) {
	t.Helper()
	require.NoError(t, env.ready.MarkReady(context.Background(), m.P1ID))
	require.NoError(t, env.ready.MarkReady(context.Background(), m.P2ID))
}

func currentMatches(cup *Tournament) []models.Match {
	return cup.View(true).Matches
}
