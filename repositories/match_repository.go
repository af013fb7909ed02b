package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/padelflow/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchPhaseConflict = errors.New("match with this phase already exists in the tournament")
	ErrMatchInvalidCourt  = errors.New("match references an unknown court")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Match, error)
	GetByPhase(ctx context.Context, exec SQLExecutor, tournamentID int, phase string, forUpdate bool) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id int, sets [3]models.SetScore, winner models.TeamSlot, endAt time.Time) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, phase, court_id, start_timestamp, end_timestamp,
		score_teamA_set1, score_teamB_set1, score_teamA_set2, score_teamB_set2, score_teamA_set3, score_teamB_set3,
		team_winner, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Phase, &m.CourtID, &m.StartTimestamp, &m.EndTimestamp,
		&m.Sets[0].A, &m.Sets[0].B, &m.Sets[1].A, &m.Sets[1].B, &m.Sets[2].A, &m.Sets[2].B,
		&m.TeamWinner, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, phase, court_id, start_timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.Phase, match.CourtID, match.StartTimestamp,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1` + forUpdateClause(forUpdate)

	m, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByPhase(ctx context.Context, exec SQLExecutor, tournamentID int, phase string, forUpdate bool) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND phase = $2` + forUpdateClause(forUpdate)

	m, err := scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, phase))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s of tournament %d: %w", phase, tournamentID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id int, sets [3]models.SetScore, winner models.TeamSlot, endAt time.Time) error {
	query := `
		UPDATE matches SET
			score_teamA_set1 = $1, score_teamB_set1 = $2,
			score_teamA_set2 = $3, score_teamB_set2 = $4,
			score_teamA_set3 = $5, score_teamB_set3 = $6,
			team_winner = $7,
			end_timestamp = $8
		WHERE id = $9`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		sets[0].A, sets[0].B, sets[1].A, sets[1].B, sets[2].A, sets[2].B,
		string(winner), endAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update score of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "matches_tournament_phase_key" {
				return ErrMatchPhaseConflict
			}
		case "23503":
			if pqErr.Constraint == "matches_court_id_fkey" {
				return ErrMatchInvalidCourt
			}
			return ErrTournamentNotFound
		}
	}
	return err
}
