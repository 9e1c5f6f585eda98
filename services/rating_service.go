package services

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/Dosada05/arena-tournaments/repositories"
)

// EloDeltas — чистая логистическая формула ELO. Возвращает прибавку
// победителя и списание проигравшего при данном K-факторе.
func EloDeltas(winnerRating, loserRating, k int) (deltaWinner, deltaLoser int) {
	expectedWinner := 1 / (1 + math.Pow(10, float64(loserRating-winnerRating)/400))
	expectedLoser := 1 / (1 + math.Pow(10, float64(winnerRating-loserRating)/400))
	deltaWinner = int(math.Round(float64(k) * (1 - expectedWinner)))
	deltaLoser = int(math.Round(float64(k) * expectedLoser))
	return deltaWinner, deltaLoser
}

// RatingService хранит рейтинги участников. Записи создаются лениво при
// первом обращении, живут независимо от турниров и переживают их удаление.
type RatingService struct {
	mu      sync.Mutex
	records map[string]*models.RatingRecord
	seq     int64

	kFactor  int
	baseline int

	repo    repositories.RatingRepository
	rewards RewardDispenser
	logger  *slog.Logger
}

func NewRatingService(repo repositories.RatingRepository, rewards RewardDispenser, kFactor, baseline int, logger *slog.Logger) *RatingService {
	if rewards == nil {
		rewards = noopRewards{}
	}
	return &RatingService{
		records:  make(map[string]*models.RatingRecord),
		kFactor:  kFactor,
		baseline: baseline,
		repo:     repo,
		rewards:  rewards,
		logger:   logger,
	}
}

// Load восстанавливает рейтинги из хранилища при старте процесса.
func (s *RatingService) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	records, err := s.repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		rec := records[i]
		s.records[rec.CompetitorID] = &rec
		if rec.Seq > s.seq {
			s.seq = rec.Seq
		}
	}
	s.logger.Info("ratings loaded", slog.Int("count", len(records)))
	return nil
}

// SaveAll сбрасывает все записи в хранилище (вызывается при остановке).
func (s *RatingService) SaveAll(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.SaveAll(ctx, s.snapshotAll())
}

func (s *RatingService) snapshotAll() []models.RatingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]models.RatingRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records
}

func (s *RatingService) getOrCreateLocked(c models.CompetitorRef) *models.RatingRecord {
	if rec, ok := s.records[c.ID]; ok {
		return rec
	}
	s.seq++
	rec := &models.RatingRecord{
		CompetitorID: c.ID,
		Name:         c.Name,
		Rating:       s.baseline,
		Seq:          s.seq,
	}
	s.records[c.ID] = rec
	return rec
}

// ApplyResult применяет исход матча: рейтинг победителя растёт, рейтинг
// проигравшего падает с полом в ноль; счётчики инкрементируются всегда.
// Ошибка записи в хранилище логируется, применённый результат не
// откатывается.
func (s *RatingService) ApplyResult(ctx context.Context, winner, loser models.CompetitorRef) {
	s.mu.Lock()
	w := s.getOrCreateLocked(winner)
	l := s.getOrCreateLocked(loser)

	deltaWinner, deltaLoser := EloDeltas(w.Rating, l.Rating, s.kFactor)
	w.Rating += deltaWinner
	l.Rating -= deltaLoser
	if l.Rating < 0 {
		l.Rating = 0
	}
	w.Wins++
	l.Losses++

	wCopy, lCopy := *w, *l
	s.mu.Unlock()

	s.logger.Info("ratings updated",
		slog.String("winner_id", winner.ID), slog.Int("winner_rating", wCopy.Rating),
		slog.String("loser_id", loser.ID), slog.Int("loser_rating", lCopy.Rating))
	s.persist(ctx, wCopy, lCopy)
}

func (s *RatingService) persist(ctx context.Context, records ...models.RatingRecord) {
	if s.repo == nil {
		return
	}
	for _, rec := range records {
		if err := s.repo.Upsert(ctx, rec); err != nil {
			s.logger.Error("failed to persist rating record",
				slog.String("competitor_id", rec.CompetitorID),
				slog.Any("error", err))
		}
	}
}

// Get возвращает запись рейтинга участника.
func (s *RatingService) Get(competitorID string) (models.RatingRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[competitorID]
	if !ok {
		return models.RatingRecord{}, false
	}
	return *rec, true
}

// Leaderboard — записи по убыванию рейтинга; при равенстве — по порядку
// первого появления.
func (s *RatingService) Leaderboard() []models.RatingRecord {
	records := s.snapshotAll()
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Rating != records[j].Rating {
			return records[i].Rating > records[j].Rating
		}
		return records[i].Seq < records[j].Seq
	})
	return records
}

// Reset снимает срез топ-N по рейтингу, выдаёт награды по местам и
// возвращает все рейтинги к базовому значению. Счётчики побед и поражений
// сохраняются как исторические.
func (s *RatingService) Reset(ctx context.Context, topN int) ([]models.RatingRecord, error) {
	top := s.Leaderboard()
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}

	for rank, rec := range top {
		if err := s.rewards.Grant(ctx, rec.CompetitorID, rank+1); err != nil {
			s.logger.Error("season reward grant failed",
				slog.String("competitor_id", rec.CompetitorID),
				slog.Int("rank", rank+1),
				slog.Any("error", err))
		}
	}

	s.mu.Lock()
	for _, rec := range s.records {
		rec.Rating = s.baseline
	}
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveAll(ctx, s.snapshotAll()); err != nil {
			s.logger.Error("failed to persist rating reset", slog.Any("error", err))
		}
	}
	return top, nil
}
