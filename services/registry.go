package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/arena-tournaments/models"
)

// ListFilter — фильтр листинга турниров.
type ListFilter struct {
	Status          *models.TournamentStatus
	MinParticipants *int
	MaxParticipants *int
}

// Registry — процессный реестр турниров: имя -> турнир и участник -> имя
// турнира. Обе карты всегда обновляются вместе под одним замком.
type Registry struct {
	mu           sync.RWMutex
	byName       map[string]*Tournament
	byCompetitor map[string]string
	deps         *Deps
}

func NewRegistry(deps *Deps) *Registry {
	deps.normalize()
	return &Registry{
		byName:       make(map[string]*Tournament),
		byCompetitor: make(map[string]string),
		deps:         deps,
	}
}

// Deps отдаёт нормализованный набор коллабораторов. Турниры, создаваемые
// мимо реестра (тесты), должны использовать его же.
func (r *Registry) Deps() *Deps { return r.deps }

// Create создаёт турнир с хостом в роли первого участника.
func (r *Registry) Create(ctx context.Context, name string, host models.CompetitorRef, cfg models.TournamentConfig) (*Tournament, error) {
	if name == "" {
		return nil, ErrTournamentNameRequired
	}
	if host.ID == "" {
		return nil, ErrCompetitorIDRequired
	}
	if cfg.MaxParticipants < 2 {
		return nil, ErrTournamentInvalidCapacity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return nil, ErrTournamentNameConflict
	}
	if r.busyLocked(host.ID) {
		return nil, ErrAlreadyInTournament
	}

	t := NewTournament(name, host, cfg, r.deps)
	r.byName[name] = t
	r.byCompetitor[host.ID] = name

	r.deps.Logger.Info("tournament created",
		slog.String("tournament", name),
		slog.String("host_id", host.ID),
		slog.Int("max_participants", cfg.MaxParticipants))
	return t, nil
}

// busyLocked: участник занят, если его текущий турнир ещё существует и не
// завершён. Запись на завершённый турнир считается устаревшей.
func (r *Registry) busyLocked(competitorID string) bool {
	name, ok := r.byCompetitor[competitorID]
	if !ok {
		return false
	}
	t, ok := r.byName[name]
	if !ok || t.Status() == models.TournamentStatusEnded {
		delete(r.byCompetitor, competitorID)
		return false
	}
	return true
}

// Join регистрирует участника в турнире. Каждая причина отказа различима
// для вызывающего: неизвестный турнир, занятость, закрытая регистрация,
// недопуск, неуплаченный взнос, заполненность.
func (r *Registry) Join(ctx context.Context, name string, c models.CompetitorRef) error {
	if c.ID == "" {
		return ErrCompetitorIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byName[name]
	if !ok {
		return ErrTournamentNotFound
	}
	if r.busyLocked(c.ID) {
		return ErrAlreadyInTournament
	}
	if t.Status() != models.TournamentStatusWaiting {
		return ErrTournamentNotWaiting
	}
	if !r.deps.Eligibility.IsEligible(ctx, c.ID, t.Ruleset()) {
		return ErrCompetitorNotEligible
	}
	// Взнос списывается последним, когда регистрация уже не может быть
	// отклонена: порта возврата средств нет.
	if err := t.CanRegister(c.ID); err != nil {
		return err
	}
	if fee := t.EntryFee(); fee > 0 && r.deps.Economy != nil {
		if err := r.deps.Economy.Withdraw(ctx, c.ID, fee); err != nil {
			return fmt.Errorf("%w: %v", ErrEntryFeeNotPaid, err)
		}
	}

	if err := t.Register(ctx, c); err != nil {
		return err
	}
	r.byCompetitor[c.ID] = name
	r.deps.notify(c.ID, fmt.Sprintf("you joined tournament %q", name))
	return nil
}

// Leave выводит участника из его текущего турнира.
func (r *Registry) Leave(ctx context.Context, competitorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byCompetitor[competitorID]
	if !ok {
		return ErrCompetitorNotInTournament
	}
	delete(r.byCompetitor, competitorID)

	t, ok := r.byName[name]
	if !ok {
		return ErrCompetitorNotInTournament
	}
	return t.Withdraw(ctx, competitorID)
}

// Delete завершает турнир (идемпотентно), вычищает обратные записи всех его
// участников и убирает турнир из реестра. Атомарно относительно
// конкурентных join/leave по тому же имени.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byName[name]
	if !ok {
		return ErrTournamentNotFound
	}

	t.End(ctx)
	for _, id := range t.ParticipantIDs() {
		if mapped, ok := r.byCompetitor[id]; ok && mapped == name {
			delete(r.byCompetitor, id)
		}
	}
	delete(r.byName, name)

	r.deps.Logger.Info("tournament deleted", slog.String("tournament", name))
	return nil
}

// Get возвращает турнир по имени.
func (r *Registry) Get(name string) (*Tournament, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// TournamentOf возвращает турнир, в котором состоит участник.
func (r *Registry) TournamentOf(competitorID string) (*Tournament, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byCompetitor[competitorID]
	if !ok {
		return nil, false
	}
	t, ok := r.byName[name]
	return t, ok
}

// List возвращает снимки турниров, подходящих под фильтр.
func (r *Registry) List(filter ListFilter) []models.TournamentView {
	r.mu.RLock()
	tournaments := make([]*Tournament, 0, len(r.byName))
	for _, t := range r.byName {
		tournaments = append(tournaments, t)
	}
	r.mu.RUnlock()

	views := make([]models.TournamentView, 0, len(tournaments))
	for _, t := range tournaments {
		view := t.View(false)
		if filter.Status != nil && view.Status != *filter.Status {
			continue
		}
		if filter.MinParticipants != nil && view.ParticipantCount < *filter.MinParticipants {
			continue
		}
		if filter.MaxParticipants != nil && view.ParticipantCount > *filter.MaxParticipants {
			continue
		}
		views = append(views, view)
	}
	return views
}

// ListInProgress — активные турниры для монитора таймаутов.
func (r *Registry) ListInProgress() []*Tournament {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*Tournament, 0, len(r.byName))
	for _, t := range r.byName {
		if t.Status() == models.TournamentStatusInProgress {
			active = append(active, t)
		}
	}
	return active
}

// ListWaiting — ожидающие турниры для планировщика автозапуска.
func (r *Registry) ListWaiting() []*Tournament {
	r.mu.RLock()
	defer r.mu.RUnlock()

	waiting := make([]*Tournament, 0, len(r.byName))
	for _, t := range r.byName {
		if t.Status() == models.TournamentStatusWaiting {
			waiting = append(waiting, t)
		}
	}
	return waiting
}
