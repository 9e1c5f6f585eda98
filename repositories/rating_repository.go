package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/arena-tournaments/models"
)

// RatingRepository — сток персистентности рейтингов: загрузка при старте,
// upsert по ходу, полный сброс при остановке и при сезонном ресете.
type RatingRepository interface {
	LoadAll(ctx context.Context) ([]models.RatingRecord, error)
	Upsert(ctx context.Context, record models.RatingRecord) error
	SaveAll(ctx context.Context, records []models.RatingRecord) error
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) LoadAll(ctx context.Context) ([]models.RatingRecord, error) {
	query := `
		SELECT competitor_id, name, rating, wins, losses, seq
		FROM ratings
		ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating records: %w", err)
	}
	defer rows.Close()

	var records []models.RatingRecord
	for rows.Next() {
		var rec models.RatingRecord
		if err := rows.Scan(&rec.CompetitorID, &rec.Name, &rec.Rating, &rec.Wins, &rec.Losses, &rec.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan rating record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rating records: %w", err)
	}
	return records, nil
}

func (r *postgresRatingRepository) Upsert(ctx context.Context, record models.RatingRecord) error {
	query := `
		INSERT INTO ratings (competitor_id, name, rating, wins, losses, seq)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (competitor_id) DO UPDATE
		SET name = EXCLUDED.name,
		    rating = EXCLUDED.rating,
		    wins = EXCLUDED.wins,
		    losses = EXCLUDED.losses`

	_, err := r.db.ExecContext(ctx, query,
		record.CompetitorID, record.Name, record.Rating, record.Wins, record.Losses, record.Seq)
	if err != nil {
		return fmt.Errorf("failed to upsert rating record %s: %w", record.CompetitorID, err)
	}
	return nil
}

// SaveAll перезаписывает всю таблицу одной транзакцией.
func (r *postgresRatingRepository) SaveAll(ctx context.Context, records []models.RatingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ratings`); err != nil {
		return fmt.Errorf("failed to clear ratings: %w", err)
	}

	insert := `
		INSERT INTO ratings (competitor_id, name, rating, wins, losses, seq)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, insert,
			rec.CompetitorID, rec.Name, rec.Rating, rec.Wins, rec.Losses, rec.Seq); err != nil {
			return fmt.Errorf("failed to insert rating record %s: %w", rec.CompetitorID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ratings snapshot: %w", err)
	}
	return nil
}
