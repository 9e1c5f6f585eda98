package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Dosada05/arena-tournaments/models"
)

// TemplateRepository хранит шаблоны регулярных турниров.
type TemplateRepository interface {
	LoadAll(ctx context.Context) ([]models.TournamentTemplate, error)
	Save(ctx context.Context, tpl models.TournamentTemplate) error
	Delete(ctx context.Context, name string) error
}

type postgresTemplateRepository struct {
	db *sql.DB
}

func NewPostgresTemplateRepository(db *sql.DB) TemplateRepository {
	return &postgresTemplateRepository{db: db}
}

func (r *postgresTemplateRepository) LoadAll(ctx context.Context) ([]models.TournamentTemplate, error) {
	query := `
		SELECT name, max_participants, host_id, host_name, period_seconds, next_run, runs
		FROM tournament_templates
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament templates: %w", err)
	}
	defer rows.Close()

	var templates []models.TournamentTemplate
	for rows.Next() {
		var tpl models.TournamentTemplate
		var periodSeconds int64
		if err := rows.Scan(&tpl.Name, &tpl.MaxParticipants, &tpl.Host.ID, &tpl.Host.Name,
			&periodSeconds, &tpl.NextRun, &tpl.Runs); err != nil {
			return nil, fmt.Errorf("failed to scan tournament template: %w", err)
		}
		tpl.Period = time.Duration(periodSeconds) * time.Second
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournament templates: %w", err)
	}
	return templates, nil
}

func (r *postgresTemplateRepository) Save(ctx context.Context, tpl models.TournamentTemplate) error {
	query := `
		INSERT INTO tournament_templates (name, max_participants, host_id, host_name, period_seconds, next_run, runs)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET max_participants = EXCLUDED.max_participants,
		    host_id = EXCLUDED.host_id,
		    host_name = EXCLUDED.host_name,
		    period_seconds = EXCLUDED.period_seconds,
		    next_run = EXCLUDED.next_run,
		    runs = EXCLUDED.runs`

	_, err := r.db.ExecContext(ctx, query,
		tpl.Name, tpl.MaxParticipants, tpl.Host.ID, tpl.Host.Name,
		int64(tpl.Period/time.Second), tpl.NextRun, tpl.Runs)
	if err != nil {
		return fmt.Errorf("failed to save tournament template %s: %w", tpl.Name, err)
	}
	return nil
}

func (r *postgresTemplateRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tournament_templates WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete tournament template %s: %w", name, err)
	}
	return nil
}
