package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/Dosada05/arena-tournaments/repositories"
)

// Scheduler обслуживает два дедлайновых механизма: автозапуск турниров с
// назначенным временем старта и создание регулярных турниров из шаблонов.
// Оба работают простым сравнением now >= target: удалённый до дедлайна
// турнир просто не попадает в очередной проход.
type Scheduler struct {
	registry *Registry
	repo     repositories.TemplateRepository

	mu        sync.Mutex
	templates map[string]*models.TournamentTemplate

	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(registry *Registry, repo repositories.TemplateRepository) *Scheduler {
	deps := registry.Deps()
	return &Scheduler{
		registry:  registry,
		repo:      repo,
		templates: make(map[string]*models.TournamentTemplate),
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// Load восстанавливает шаблоны регулярных турниров при старте процесса.
func (s *Scheduler) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	templates, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range templates {
		tpl := templates[i]
		s.templates[tpl.Name] = &tpl
	}
	s.logger.Info("tournament templates loaded", slog.Int("count", len(templates)))
	return nil
}

// Run гоняет Tick по тикеру до отмены контекста.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("tournament scheduler started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tournament scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick — один синхронный проход обоих механизмов (вызывается и из тестов).
func (s *Scheduler) Tick(ctx context.Context) {
	s.startDueTournaments(ctx)
	s.spawnDueTemplates(ctx)
}

func (s *Scheduler) startDueTournaments(ctx context.Context) {
	now := s.now()
	for _, t := range s.registry.ListWaiting() {
		target := t.ScheduledStart()
		if target == nil || now.Before(*target) {
			continue
		}

		err := t.Start(ctx)
		switch {
		case err == nil:
			s.logger.Info("tournament auto-started", slog.String("tournament", t.Name()))
		case errors.Is(err, ErrNotEnoughParticipants):
			s.logger.Info("scheduled start postponed, not enough participants",
				slog.String("tournament", t.Name()))
		case errors.Is(err, ErrTournamentAlreadyStarted), errors.Is(err, ErrTournamentEnded):
			// Состояние поменялось между листингом и стартом.
		default:
			s.logger.Error("scheduled start failed",
				slog.String("tournament", t.Name()), slog.Any("error", err))
		}
	}
}

func (s *Scheduler) spawnDueTemplates(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tpl := range s.templates {
		if now.Before(tpl.NextRun) {
			continue
		}

		name := fmt.Sprintf("%s-%d", tpl.Name, tpl.Runs+1)
		_, err := s.registry.Create(ctx, name, tpl.Host, models.TournamentConfig{
			MaxParticipants: tpl.MaxParticipants,
		})
		if err != nil {
			s.logger.Error("failed to spawn recurring tournament",
				slog.String("template", tpl.Name),
				slog.String("tournament", name),
				slog.Any("error", err))
		} else {
			tpl.Runs++
			s.logger.Info("recurring tournament created",
				slog.String("template", tpl.Name),
				slog.String("tournament", name))
		}

		// Дедлайн двигается в любом случае, чтобы неудачный шаблон не
		// молотил на каждом тике.
		tpl.NextRun = now.Add(tpl.Period)
		s.persistLocked(ctx, tpl)
	}
}

func (s *Scheduler) persistLocked(ctx context.Context, tpl *models.TournamentTemplate) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, *tpl); err != nil {
		s.logger.Error("failed to persist template",
			slog.String("template", tpl.Name), slog.Any("error", err))
	}
}

// AddTemplate регистрирует новый шаблон регулярного турнира.
func (s *Scheduler) AddTemplate(ctx context.Context, tpl models.TournamentTemplate) error {
	if tpl.Name == "" {
		return ErrTournamentNameRequired
	}
	if tpl.MaxParticipants < 2 {
		return ErrTournamentInvalidCapacity
	}
	if tpl.Period <= 0 {
		return ErrTemplateInvalidPeriod
	}
	if tpl.Host.ID == "" {
		return ErrCompetitorIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[tpl.Name]; exists {
		return ErrTemplateNameConflict
	}
	if tpl.NextRun.IsZero() {
		tpl.NextRun = s.now().Add(tpl.Period)
	}
	s.templates[tpl.Name] = &tpl
	s.persistLocked(ctx, &tpl)
	return nil
}

// ListTemplates возвращает шаблоны в произвольном порядке.
func (s *Scheduler) ListTemplates() []models.TournamentTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	templates := make([]models.TournamentTemplate, 0, len(s.templates))
	for _, tpl := range s.templates {
		templates = append(templates, *tpl)
	}
	return templates
}

// RemoveTemplate удаляет шаблон.
func (s *Scheduler) RemoveTemplate(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[name]; !exists {
		return ErrTemplateNotFound
	}
	delete(s.templates, name)
	if s.repo != nil {
		if err := s.repo.Delete(ctx, name); err != nil {
			s.logger.Error("failed to delete template",
				slog.String("template", name), slog.Any("error", err))
		}
	}
	return nil
}
