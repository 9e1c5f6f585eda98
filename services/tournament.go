package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/arena-tournaments/brackets"
	"github.com/Dosada05/arena-tournaments/models"
)

// Типы событий, рассылаемых в комнату турнира.
const (
	EventParticipantJoined = "PARTICIPANT_JOINED"
	EventParticipantLeft   = "PARTICIPANT_LEFT"
	EventHostChanged       = "HOST_CHANGED"
	EventTournamentStarted = "TOURNAMENT_STARTED"
	EventMatchScheduled    = "MATCH_SCHEDULED"
	EventMatchStarted      = "MATCH_STARTED"
	EventMatchCompleted    = "MATCH_COMPLETED"
	EventEliminated        = "COMPETITOR_ELIMINATED"
	EventRoundAdvanced     = "ROUND_ADVANCED"
	EventTournamentEnded   = "TOURNAMENT_ENDED"
)

// Tournament — агрегат одного турнира. Все мутации сериализуются на одном
// мьютексе: конкурентные RecordResult по разным матчам одного раунда не
// должны гоняться на детекции завершения раунда.
type Tournament struct {
	mu   sync.Mutex
	deps *Deps

	name   string
	hostID string
	cfg    models.TournamentConfig

	status       models.TournamentStatus
	participants map[string]*models.Participant
	order        []string // порядок регистрации
	eliminated   map[string]struct{}

	rounds     [][]models.CompetitorRef
	matches    []*models.Match
	byes       []models.CompetitorRef
	roundIndex int

	createdAt time.Time
	startedAt *time.Time
	endedAt   *time.Time
	winnerID  *string
}

func NewTournament(name string, host models.CompetitorRef, cfg models.TournamentConfig, deps *Deps) *Tournament {
	t := &Tournament{
		deps:         deps,
		name:         name,
		hostID:       host.ID,
		cfg:          cfg,
		status:       models.TournamentStatusWaiting,
		participants: make(map[string]*models.Participant),
		eliminated:   make(map[string]struct{}),
		createdAt:    deps.Now(),
	}
	t.addParticipantLocked(host)
	return t
}

func (t *Tournament) Name() string { return t.name }

func (t *Tournament) HostID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hostID
}

func (t *Tournament) Status() models.TournamentStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tournament) Winner() *string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.winnerID
}

// ScheduledStart — момент автозапуска, nil если запуск только ручной.
func (t *Tournament) ScheduledStart() *time.Time {
	return t.cfg.ScheduledStart
}

func (t *Tournament) Ruleset() json.RawMessage { return t.cfg.Ruleset }

func (t *Tournament) EntryFee() int { return t.cfg.EntryFee }

// ParticipantIDs возвращает всех зарегистрированных (включая выбывших) в
// порядке регистрации. Используется реестром при удалении турнира.
func (t *Tournament) ParticipantIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, len(t.order))
	copy(ids, t.order)
	return ids
}

// View — снимок состояния для HTTP и websocket.
func (t *Tournament) View(detailed bool) models.TournamentView {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := models.TournamentView{
		Name:             t.name,
		HostID:           t.hostID,
		Status:           t.status,
		MaxParticipants:  t.cfg.MaxParticipants,
		ParticipantCount: len(t.participants),
		ActiveCount:      len(t.activeLocked()),
		CurrentRound:     t.roundIndex,
		CreatedAt:        t.createdAt,
		ScheduledStart:   t.cfg.ScheduledStart,
		StartedAt:        t.startedAt,
		EndedAt:          t.endedAt,
		WinnerID:         t.winnerID,
	}
	if !detailed {
		return view
	}

	view.Participants = make([]models.Participant, 0, len(t.order))
	for _, id := range t.order {
		if p, ok := t.participants[id]; ok {
			view.Participants = append(view.Participants, *p)
		}
	}
	view.Eliminated = make([]string, 0, len(t.eliminated))
	for _, id := range t.order {
		if _, gone := t.eliminated[id]; gone {
			view.Eliminated = append(view.Eliminated, id)
		}
	}
	view.Matches = make([]models.Match, 0, len(t.matches))
	for _, m := range t.matches {
		view.Matches = append(view.Matches, *m)
	}
	return view
}

// CanRegister проверяет, примет ли турнир участника, ничего не меняя.
// Реестр вызывает её до списания взноса: отклонённая регистрация не должна
// стоить участнику денег.
func (t *Tournament) CanRegister(competitorID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canRegisterLocked(competitorID)
}

func (t *Tournament) canRegisterLocked(competitorID string) error {
	switch t.status {
	case models.TournamentStatusEnded:
		return ErrTournamentEnded
	case models.TournamentStatusInProgress:
		return ErrTournamentNotWaiting
	}
	if _, ok := t.participants[competitorID]; ok {
		return ErrAlreadyRegistered
	}
	if len(t.participants) >= t.cfg.MaxParticipants {
		return ErrTournamentFull
	}
	return nil
}

// Register добавляет участника. Только в статусе waiting; занятость
// участника в другом турнире контролирует реестр.
func (t *Tournament) Register(ctx context.Context, c models.CompetitorRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.canRegisterLocked(c.ID); err != nil {
		return err
	}

	t.addParticipantLocked(c)
	t.deps.broadcast(t.name, fmt.Sprintf("%s joined the tournament (%d/%d)", c.Name, len(t.participants), t.cfg.MaxParticipants))
	t.deps.event(t.name, EventParticipantJoined, c)
	return nil
}

func (t *Tournament) addParticipantLocked(c models.CompetitorRef) {
	t.participants[c.ID] = &models.Participant{CompetitorID: c.ID, Name: c.Name}
	t.order = append(t.order, c.ID)
}

// Withdraw убирает участника из борьбы. В waiting запись удаляется целиком;
// в in_progress невыбывший участник сдаёт текущий матч (форфейт) и
// помечается выбывшим, запись со счётчиками остаётся до удаления турнира.
func (t *Tournament) Withdraw(ctx context.Context, competitorID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.participants[competitorID]
	if !ok {
		return ErrCompetitorNotInTournament
	}

	switch t.status {
	case models.TournamentStatusWaiting:
		delete(t.participants, competitorID)
		t.removeFromOrderLocked(competitorID)
		t.deps.broadcast(t.name, fmt.Sprintf("%s left the tournament", p.Name))
		t.deps.event(t.name, EventParticipantLeft, p.Ref())
		t.transferHostLocked(competitorID)

	case models.TournamentStatusInProgress:
		if _, gone := t.eliminated[competitorID]; !gone {
			if m := t.unresolvedMatchOfLocked(competitorID); m != nil {
				opponent, _ := m.OpponentOf(competitorID)
				// Форфейт идёт обычным путём результата, чтобы рейтинг,
				// выбывание и продвижение раунда сработали одинаково.
				if err := t.recordResultLocked(ctx, opponent.ID, competitorID); err != nil {
					return err
				}
			} else {
				t.eliminateLocked(ctx, competitorID)
			}
		}
		t.deps.broadcast(t.name, fmt.Sprintf("%s withdrew from the tournament", p.Name))
		t.deps.event(t.name, EventParticipantLeft, p.Ref())
		// Форфейт мог только что завершить турнир; хост завершённого
		// турнира не переназначается.
		if t.status != models.TournamentStatusEnded {
			t.transferHostLocked(competitorID)
		}

	case models.TournamentStatusEnded:
		// Турнир уже завершён, выходить не из чего.
	}
	return nil
}

func (t *Tournament) removeFromOrderLocked(competitorID string) {
	for i, id := range t.order {
		if id == competitorID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

// transferHostLocked передаёт роль хоста первому по порядку регистрации из
// оставшихся, если хост вышел.
func (t *Tournament) transferHostLocked(leavingID string) {
	if t.hostID != leavingID {
		return
	}
	for _, id := range t.order {
		if id == leavingID {
			continue
		}
		if p, ok := t.participants[id]; ok {
			t.hostID = id
			t.deps.broadcast(t.name, fmt.Sprintf("%s is the new tournament host", p.Name))
			t.deps.event(t.name, EventHostChanged, p.Ref())
			return
		}
	}
}

// Start запускает турнир: единственная перетасовка участников, нулевой
// раунд, расписание матчей.
func (t *Tournament) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.status {
	case models.TournamentStatusEnded:
		return ErrTournamentEnded
	case models.TournamentStatusInProgress:
		return ErrTournamentAlreadyStarted
	}
	if len(t.participants) < 2 {
		t.deps.broadcast(t.name, "tournament cannot start: at least two participants are required")
		return ErrNotEnoughParticipants
	}

	refs := make([]models.CompetitorRef, 0, len(t.order))
	for _, id := range t.order {
		refs = append(refs, t.participants[id].Ref())
	}
	t.rounds = [][]models.CompetitorRef{brackets.Shuffle(t.deps.Rand, refs)}
	t.roundIndex = 0
	t.status = models.TournamentStatusInProgress
	now := t.deps.Now()
	t.startedAt = &now

	t.deps.broadcast(t.name, fmt.Sprintf("tournament started with %d participants", len(t.participants)))
	t.deps.event(t.name, EventTournamentStarted, t.rounds[0])
	t.scheduleRoundLocked(ctx)
	return nil
}

// scheduleRoundLocked создаёт матчи текущего раунда и просит обе стороны
// каждой пары подтвердить готовность. Bye проходит дальше без матча.
func (t *Tournament) scheduleRoundLocked(ctx context.Context) {
	round := t.rounds[t.roundIndex]
	pairings := brackets.PairRound(round)

	t.matches = t.matches[:0]
	t.byes = t.byes[:0]
	for _, pairing := range pairings {
		if pairing.IsBye {
			t.byes = append(t.byes, pairing.P1)
			t.deps.notify(pairing.P1.ID, fmt.Sprintf("you have a bye in round %d and advance automatically", t.roundIndex+1))
			continue
		}
		m := models.NewMatch(pairing.P1, pairing.P2)
		t.matches = append(t.matches, m)
		t.deps.notify(pairing.P1.ID, fmt.Sprintf("round %d: you face %s, mark yourself ready to begin", t.roundIndex+1, pairing.P2.Name))
		t.deps.notify(pairing.P2.ID, fmt.Sprintf("round %d: you face %s, mark yourself ready to begin", t.roundIndex+1, pairing.P1.Name))
		t.deps.event(t.name, EventMatchScheduled, *m)
	}
}

// ScheduledMatchOf находит ожидающий готовности матч участника.
func (t *Tournament) ScheduledMatchOf(competitorID string) (matchID string, opponent models.CompetitorRef, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != models.TournamentStatusInProgress {
		return "", models.CompetitorRef{}, ErrNoScheduledMatch
	}
	for _, m := range t.matches {
		if m.Status == models.MatchStatusScheduled && m.Involves(competitorID) {
			opp, _ := m.OpponentOf(competitorID)
			return m.ID, opp, nil
		}
	}
	return "", models.CompetitorRef{}, ErrNoScheduledMatch
}

// StartMatch переводит матч в in_progress и запрашивает бой у внешнего
// движка. Ошибка движка логируется: матч уже стартовал, монитор таймаутов
// разрешит его принудительно, если результата не будет.
func (t *Tournament) StartMatch(ctx context.Context, matchID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, m := range t.matches {
		if m.ID != matchID {
			continue
		}
		if m.Status != models.MatchStatusScheduled {
			return ErrMatchAlreadyResolved
		}
		m.Start(t.deps.Now())
		t.deps.event(t.name, EventMatchStarted, *m)
		a := models.CompetitorRef{ID: m.P1ID, Name: m.P1Name}
		b := models.CompetitorRef{ID: m.P2ID, Name: m.P2Name}
		if err := t.deps.Battle.RequestBattle(ctx, a, b); err != nil {
			t.deps.Logger.Error("battle engine request failed",
				slog.String("tournament", t.name),
				slog.String("match_id", m.ID),
				slog.Any("error", err))
		}
		return nil
	}
	return ErrMatchNotFound
}

// RecordResult фиксирует исход матча текущего раунда между двумя
// участниками. Единая точка входа для ручных результатов, движка боёв и
// монитора таймаутов.
func (t *Tournament) RecordResult(ctx context.Context, winnerID, loserID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == models.TournamentStatusEnded {
		return ErrTournamentEnded
	}
	return t.recordResultLocked(ctx, winnerID, loserID)
}

func (t *Tournament) recordResultLocked(ctx context.Context, winnerID, loserID string) error {
	if winnerID == loserID {
		return ErrMatchNotFound
	}

	var match *models.Match
	for _, m := range t.matches {
		if m.Involves(winnerID) && m.Involves(loserID) {
			match = m
			break
		}
	}
	if match == nil {
		return ErrMatchNotFound
	}
	if match.Resolved() {
		return ErrMatchAlreadyResolved
	}
	if !match.Complete(winnerID) {
		return ErrMatchNotFound
	}

	winner := t.participants[winnerID]
	loser := t.participants[loserID]
	winner.Wins++
	loser.Losses++

	t.deps.Ready.ClearReady(winnerID, loserID)
	t.deps.Ratings.ApplyResult(ctx, winner.Ref(), loser.Ref())
	t.deps.broadcast(t.name, fmt.Sprintf("%s defeated %s", winner.Name, loser.Name))
	t.deps.event(t.name, EventMatchCompleted, *match)

	t.eliminateLocked(ctx, loserID)
	if t.status == models.TournamentStatusInProgress {
		t.checkRoundCompleteLocked(ctx)
	}
	return nil
}

func (t *Tournament) unresolvedMatchOfLocked(competitorID string) *models.Match {
	for _, m := range t.matches {
		if !m.Resolved() && m.Involves(competitorID) {
			return m
		}
	}
	return nil
}

// eliminateLocked идемпотентно помечает участника выбывшим, уведомляет его
// и зрителей и запускает перемещение с арены. Если активных остаётся не
// больше одного, турнир завершается.
func (t *Tournament) eliminateLocked(ctx context.Context, competitorID string) {
	p, ok := t.participants[competitorID]
	if !ok {
		return
	}
	if _, gone := t.eliminated[competitorID]; gone {
		return
	}

	t.eliminated[competitorID] = struct{}{}
	t.deps.notify(competitorID, "you have been eliminated from the tournament")
	t.deps.broadcast(t.name, fmt.Sprintf("%s has been eliminated", p.Name))
	t.deps.event(t.name, EventEliminated, p.Ref())
	t.relocateOut(competitorID)

	if len(t.activeLocked()) <= 1 {
		t.endLocked(ctx)
	}
}

// relocateOut — best effort: ошибка логируется и перемещение повторяется
// один раз после паузы. Никогда не влияет на состояние турнира.
func (t *Tournament) relocateOut(competitorID string) {
	deps := t.deps
	name := t.name
	go func() {
		ctx := context.Background()
		err := deps.Relocator.Relocate(ctx, competitorID, RelocateExit)
		if err == nil {
			return
		}
		deps.Logger.Warn("relocation failed, will retry once",
			slog.String("tournament", name),
			slog.String("competitor_id", competitorID),
			slog.Any("error", err))
		time.Sleep(deps.RelocateRetryDelay)
		if err := deps.Relocator.Relocate(ctx, competitorID, RelocateExit); err != nil {
			deps.Logger.Error("relocation failed after retry",
				slog.String("tournament", name),
				slog.String("competitor_id", competitorID),
				slog.Any("error", err))
		}
	}()
}

func (t *Tournament) activeLocked() []models.CompetitorRef {
	active := make([]models.CompetitorRef, 0, len(t.order))
	for _, id := range t.order {
		p, ok := t.participants[id]
		if !ok {
			continue
		}
		if _, gone := t.eliminated[id]; gone {
			continue
		}
		active = append(active, p.Ref())
	}
	return active
}

func (t *Tournament) checkRoundCompleteLocked(ctx context.Context) {
	for _, m := range t.matches {
		if !m.Resolved() {
			return
		}
	}
	t.advanceRoundLocked(ctx)
}

// advanceRoundLocked собирает победителей завершённых матчей и bye-участников
// в следующий раунд. Матчи прошедшего раунда отбрасываются: между раундами
// живут только счётчики и множество выбывших.
func (t *Tournament) advanceRoundLocked(ctx context.Context) {
	winners := make([]models.CompetitorRef, 0, len(t.matches)+len(t.byes))
	for _, m := range t.matches {
		if m.Status != models.MatchStatusCompleted || m.WinnerID == nil {
			continue
		}
		if _, gone := t.eliminated[*m.WinnerID]; gone {
			continue
		}
		winner := models.CompetitorRef{ID: m.P1ID, Name: m.P1Name}
		if *m.WinnerID == m.P2ID {
			winner = models.CompetitorRef{ID: m.P2ID, Name: m.P2Name}
		}
		winners = append(winners, winner)
	}
	for _, bye := range t.byes {
		if _, gone := t.eliminated[bye.ID]; gone {
			continue
		}
		winners = append(winners, bye)
	}

	if len(winners) <= 1 {
		t.endLocked(ctx)
		return
	}

	t.rounds = append(t.rounds, winners)
	t.roundIndex++
	t.deps.broadcast(t.name, fmt.Sprintf("round %d begins with %d competitors", t.roundIndex+1, len(winners)))
	t.deps.event(t.name, EventRoundAdvanced, winners)
	t.scheduleRoundLocked(ctx)
}

// End завершает турнир досрочно (удаление, команда хоста).
func (t *Tournament) End(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLocked(ctx)
}

// endLocked идемпотентен. Единственное место, где выдаются награды.
func (t *Tournament) endLocked(ctx context.Context) {
	if t.status == models.TournamentStatusEnded {
		return
	}

	for _, m := range t.matches {
		if !m.Resolved() {
			m.Cancel()
		}
	}
	t.deps.Ready.ClearReady(t.order...)

	winner := t.overallWinnerLocked()
	t.status = models.TournamentStatusEnded
	now := t.deps.Now()
	t.endedAt = &now

	if winner != nil {
		id := winner.ID
		t.winnerID = &id
		t.deps.notify(winner.ID, "congratulations, you won the tournament!")
		t.deps.broadcast(t.name, fmt.Sprintf("%s wins the tournament", winner.Name))
		if err := t.deps.Rewards.Grant(ctx, winner.ID, 1); err != nil {
			t.deps.Logger.Error("reward grant failed",
				slog.String("tournament", t.name),
				slog.String("competitor_id", winner.ID),
				slog.Any("error", err))
		}
	} else {
		t.deps.broadcast(t.name, "tournament ended without a winner")
	}
	t.deps.event(t.name, EventTournamentEnded, t.viewLocked())
	t.archiveResultsLocked()
}

// overallWinnerLocked: единственный активный участник, иначе первый из
// последнего сгенерированного раунда. Второй вариант намеренно произволен
// (принудительное завершение без доигранных матчей) и сохранён как есть.
func (t *Tournament) overallWinnerLocked() *models.CompetitorRef {
	if active := t.activeLocked(); len(active) == 1 {
		return &active[0]
	}
	if len(t.rounds) > 0 {
		last := t.rounds[len(t.rounds)-1]
		if len(last) > 0 {
			ref := last[0]
			return &ref
		}
	}
	return nil
}

func (t *Tournament) viewLocked() models.TournamentView {
	return models.TournamentView{
		Name:             t.name,
		HostID:           t.hostID,
		Status:           t.status,
		MaxParticipants:  t.cfg.MaxParticipants,
		ParticipantCount: len(t.participants),
		ActiveCount:      len(t.activeLocked()),
		CurrentRound:     t.roundIndex,
		CreatedAt:        t.createdAt,
		StartedAt:        t.startedAt,
		EndedAt:          t.endedAt,
		WinnerID:         t.winnerID,
	}
}

// archiveResultsLocked выгружает итоговый протокол в объектное хранилище.
// Best effort: выполняется в фоне, ошибки только логируются.
func (t *Tournament) archiveResultsLocked() {
	if t.deps.Archive == nil {
		return
	}

	summary := struct {
		Tournament models.TournamentView `json:"tournament"`
		Standings  []models.Participant  `json:"standings"`
	}{Tournament: t.viewLocked()}
	for _, id := range t.order {
		if p, ok := t.participants[id]; ok {
			summary.Standings = append(summary.Standings, *p)
		}
	}

	body, err := json.Marshal(summary)
	if err != nil {
		t.deps.Logger.Error("failed to marshal tournament summary",
			slog.String("tournament", t.name), slog.Any("error", err))
		return
	}

	deps := t.deps
	name := t.name
	go func() {
		location, err := deps.Archive.ArchiveResults(context.Background(), name, body)
		if err != nil {
			deps.Logger.Error("failed to archive tournament results",
				slog.String("tournament", name), slog.Any("error", err))
			return
		}
		deps.Logger.Info("tournament results archived",
			slog.String("tournament", name), slog.String("location", location))
	}()
}

// StuckMatch — матч, висящий в in_progress дольше таймаута.
type StuckMatch struct {
	MatchID string
	P1ID    string
	P2ID    string
	Since   time.Time
}

// StuckMatches возвращает матчи текущего раунда, превысившие таймаут.
func (t *Tournament) StuckMatches(now time.Time, timeout time.Duration) []StuckMatch {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != models.TournamentStatusInProgress {
		return nil
	}
	var stuck []StuckMatch
	for _, m := range t.matches {
		if m.Status != models.MatchStatusInProgress || m.StartedAt == nil {
			continue
		}
		if now.Sub(*m.StartedAt) > timeout {
			stuck = append(stuck, StuckMatch{
				MatchID: m.ID,
				P1ID:    m.P1ID,
				P2ID:    m.P2ID,
				Since:   *m.StartedAt,
			})
		}
	}
	return stuck
}
