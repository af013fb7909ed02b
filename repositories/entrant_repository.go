package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/padelflow/models"
	"github.com/lib/pq"
)

var (
	ErrEntrantNotFound = errors.New("player is not registered in this tournament")
	ErrEntrantConflict = errors.New("player is already registered in this tournament")
	ErrPlayerNotFound  = errors.New("player not found")
)

type EntrantRepository interface {
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Entrant, error)
	Add(ctx context.Context, exec SQLExecutor, tournamentID, playerID int, teamKey *string) error
	SetTeamKey(ctx context.Context, exec SQLExecutor, tournamentID int, teamKey string, playerIDs []int) error
	Remove(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error
	RemoveTeam(ctx context.Context, exec SQLExecutor, tournamentID int, teamKey string) error
}

type postgresEntrantRepository struct {
	db *sql.DB
}

func NewPostgresEntrantRepository(db *sql.DB) EntrantRepository {
	return &postgresEntrantRepository{db: db}
}

func (r *postgresEntrantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEntrantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Entrant, error) {
	query := `
		SELECT tp.tournament_id, p.id, p.name, p.ranking, tp.players_team_id, tp.created_at
		FROM tournament_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.tournament_id = $1
		ORDER BY tp.created_at ASC, p.id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entrants of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	entrants := make([]models.Entrant, 0)
	for rows.Next() {
		var e models.Entrant
		if scanErr := rows.Scan(&e.TournamentID, &e.PlayerID, &e.Name, &e.Ranking, &e.TeamKey, &e.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		entrants = append(entrants, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entrants, nil
}

func (r *postgresEntrantRepository) Add(ctx context.Context, exec SQLExecutor, tournamentID, playerID int, teamKey *string) error {
	query := `INSERT INTO tournament_players (tournament_id, player_id, players_team_id) VALUES ($1, $2, $3)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, playerID, teamKey)
	return r.handleEntrantError(err)
}

func (r *postgresEntrantRepository) SetTeamKey(ctx context.Context, exec SQLExecutor, tournamentID int, teamKey string, playerIDs []int) error {
	query := `UPDATE tournament_players SET players_team_id = $1 WHERE tournament_id = $2 AND player_id = ANY($3)`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, teamKey, tournamentID, pq.Array(playerIDs))
	if err != nil {
		return fmt.Errorf("failed to set team key %s: %w", teamKey, err)
	}
	return checkAffectedRows(result, ErrEntrantNotFound)
}

func (r *postgresEntrantRepository) Remove(ctx context.Context, exec SQLExecutor, tournamentID, playerID int) error {
	query := `DELETE FROM tournament_players WHERE tournament_id = $1 AND player_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrEntrantNotFound)
}

func (r *postgresEntrantRepository) RemoveTeam(ctx context.Context, exec SQLExecutor, tournamentID int, teamKey string) error {
	query := `DELETE FROM tournament_players WHERE tournament_id = $1 AND players_team_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID, teamKey)
	if err != nil {
		return fmt.Errorf("failed to remove team %s: %w", teamKey, err)
	}
	return checkAffectedRows(result, ErrEntrantNotFound)
}

func (r *postgresEntrantRepository) handleEntrantError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrEntrantConflict
		case "23503":
			if pqErr.Constraint == "tournament_players_tournament_id_fkey" {
				return ErrTournamentNotFound
			}
			return ErrPlayerNotFound
		}
	}
	return err
}
