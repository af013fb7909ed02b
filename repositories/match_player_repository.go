package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/padelflow/models"
	"github.com/lib/pq"
)

var ErrMatchPlayerConflict = errors.New("player is already assigned to this match")

type MatchPlayerRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, mp models.MatchPlayer) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.MatchPlayer, error)
	ListByMatchAndTeam(ctx context.Context, exec SQLExecutor, matchID int, team models.TeamSlot) ([]models.MatchPlayer, error)
	// DeleteByWinnerFrom снимает строки, попавшие в матч из дочернего матча winnerFrom.
	DeleteByWinnerFrom(ctx context.Context, exec SQLExecutor, matchID, winnerFrom int) (int64, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.MatchPlayer, error)
}

type postgresMatchPlayerRepository struct {
	db *sql.DB
}

func NewPostgresMatchPlayerRepository(db *sql.DB) MatchPlayerRepository {
	return &postgresMatchPlayerRepository{db: db}
}

func (r *postgresMatchPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchPlayerRepository) Insert(ctx context.Context, exec SQLExecutor, mp models.MatchPlayer) error {
	query := `INSERT INTO match_players (match_id, player_id, team, winner_from) VALUES ($1, $2, $3, $4)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, mp.MatchID, mp.PlayerID, string(mp.Team), mp.WinnerFrom)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("%w (match %d, player %d)", ErrMatchPlayerConflict, mp.MatchID, mp.PlayerID)
		}
		return fmt.Errorf("failed to insert match player: %w", err)
	}
	return nil
}

func (r *postgresMatchPlayerRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]models.MatchPlayer, error) {
	query := `
		SELECT mp.match_id, mp.player_id, mp.team, mp.winner_from, p.name
		FROM match_players mp
		JOIN players p ON p.id = mp.player_id
		WHERE mp.match_id = $1
		ORDER BY mp.team ASC, mp.player_id ASC`
	return r.list(ctx, exec, query, matchID)
}

func (r *postgresMatchPlayerRepository) ListByMatchAndTeam(ctx context.Context, exec SQLExecutor, matchID int, team models.TeamSlot) ([]models.MatchPlayer, error) {
	query := `
		SELECT mp.match_id, mp.player_id, mp.team, mp.winner_from, p.name
		FROM match_players mp
		JOIN players p ON p.id = mp.player_id
		WHERE mp.match_id = $1 AND mp.team = $2
		ORDER BY mp.player_id ASC`
	return r.list(ctx, exec, query, matchID, string(team))
}

func (r *postgresMatchPlayerRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.MatchPlayer, error) {
	query := `
		SELECT mp.match_id, mp.player_id, mp.team, mp.winner_from, p.name
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		JOIN players p ON p.id = mp.player_id
		WHERE m.tournament_id = $1
		ORDER BY mp.match_id ASC, mp.team ASC, mp.player_id ASC`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresMatchPlayerRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.MatchPlayer, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match players: %w", err)
	}
	defer rows.Close()

	players := make([]models.MatchPlayer, 0)
	for rows.Next() {
		var mp models.MatchPlayer
		if scanErr := rows.Scan(&mp.MatchID, &mp.PlayerID, &mp.Team, &mp.WinnerFrom, &mp.Name); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, mp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

func (r *postgresMatchPlayerRepository) DeleteByWinnerFrom(ctx context.Context, exec SQLExecutor, matchID, winnerFrom int) (int64, error) {
	query := `DELETE FROM match_players WHERE match_id = $1 AND winner_from = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, matchID, winnerFrom)
	if err != nil {
		return 0, fmt.Errorf("failed to roll back advancement from match %d: %w", winnerFrom, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n, nil
}
