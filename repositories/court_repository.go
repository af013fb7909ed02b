package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/padelflow/models"
	"github.com/lib/pq"
)

var ErrCourtNotFound = errors.New("court not found")

type CourtRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Court, error)
	// ReplaceForTournament заменяет набор кортов турнира целиком.
	ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, courtIDs []int) error
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCourtRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Court, error) {
	query := `
		SELECT c.id, c.name, c.status
		FROM courts c
		JOIN tournament_courts tc ON c.id = tc.court_id
		WHERE tc.tournament_id = $1
		ORDER BY c.id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var c models.Court
		if scanErr := rows.Scan(&c.ID, &c.Name, &c.Status); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}

func (r *postgresCourtRepository) ReplaceForTournament(ctx context.Context, exec SQLExecutor, tournamentID int, courtIDs []int) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx, `DELETE FROM tournament_courts WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear courts of tournament %d: %w", tournamentID, err)
	}
	if len(courtIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO tournament_courts (tournament_id, court_id)
		SELECT $1, court_id FROM unnest($2::int[]) AS court_id
		ON CONFLICT DO NOTHING`
	if _, err := executor.ExecContext(ctx, query, tournamentID, pq.Array(courtIDs)); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCourtNotFound
		}
		return fmt.Errorf("failed to associate courts with tournament %d: %w", tournamentID, err)
	}
	return nil
}
