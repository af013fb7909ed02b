package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/padelflow/brackets"
	"github.com/Dosada05/padelflow/models"
	"github.com/Dosada05/padelflow/repositories"
)

type TournamentService interface {
	// Initialize формирует пары, создаёт все матчи сетки и расписание первого
	// раунда, затем переводит турнир в active. Всё в одной транзакции.
	Initialize(ctx context.Context, tournamentID int) error
	AssignCourts(ctx context.Context, tournamentID int, courtIDs []int) error
	RegisterEntrant(ctx context.Context, tournamentID, playerID int) error
	RegisterTeam(ctx context.Context, tournamentID, player1ID, player2ID int) (models.Team, error)
	RemoveEntrant(ctx context.Context, tournamentID, playerID int) error
	RemoveTeam(ctx context.Context, tournamentID int, teamKey string) error
	CompleteTournament(ctx context.Context, tournamentID int) error
}

type tournamentService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	entrantRepo     repositories.EntrantRepository
	courtRepo       repositories.CourtRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	generator       brackets.BracketGenerator
	publisher       EventPublisher
	metrics         Metrics
	logger          *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	entrantRepo repositories.EntrantRepository,
	courtRepo repositories.CourtRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	generator brackets.BracketGenerator,
	publisher EventPublisher,
	metrics Metrics,
	logger *slog.Logger,
) TournamentService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		entrantRepo:     entrantRepo,
		courtRepo:       courtRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		generator:       generator,
		publisher:       publisher,
		metrics:         metrics,
		logger:          logger,
	}
}

func (s *tournamentService) Initialize(ctx context.Context, tournamentID int) error {
	started := time.Now()
	var plan *brackets.BracketPlan

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		tournament, err := s.lockPending(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Type != models.TypeElimination {
			return stateErr(fmt.Errorf("%w (type %s)", ErrUnsupportedTournamentType, tournament.Type))
		}

		entrants, err := s.entrantRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return persistence("load entrants", err)
		}
		courts, err := s.courtRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return persistence("load courts", err)
		}

		plan, err = s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Tournament: tournament,
			Entrants:   entrants,
			Courts:     courts,
			StartAt:    tournament.StartDate,
		})
		if err != nil {
			return classifyBracketError(err)
		}

		for _, np := range plan.Pairing.New {
			if err := s.entrantRepo.SetTeamKey(ctx, tx, tournamentID, np.Team.Key, np.Team.Players[:]); err != nil {
				return persistence("persist team "+np.Team.Key, err)
			}
		}

		if err := s.createMatches(ctx, tx, tournamentID, plan); err != nil {
			return err
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusActive); err != nil {
			return persistence("activate tournament", err)
		}
		return nil
	})
	s.metrics.ObserveInitialize(time.Since(started), err)
	if err != nil {
		s.logger.Warn("tournament initialization failed", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return err
	}

	s.logger.Info("tournament initialized",
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", len(plan.Pairing.Existing)+len(plan.Pairing.New)),
		slog.Int("matches", len(plan.Phases)),
		slog.String("generator", s.generator.GetName()))

	publishAll(ctx, s.publisher, s.metrics, s.logger, NewEvent(EventTournamentInitialized, tournamentID, TournamentInitializedPayload{
		Teams:   len(plan.Pairing.Existing) + len(plan.Pairing.New),
		Matches: len(plan.Phases),
	}))
	return nil
}

// createMatches пишет по строке на каждую фазу. Матчи первого раунда
// получают корт, время начала и игроков обеих сторон.
func (s *tournamentService) createMatches(ctx context.Context, tx repositories.SQLExecutor, tournamentID int, plan *brackets.BracketPlan) error {
	firstRound := make(map[string]brackets.Assignment, len(plan.FirstRound))
	for _, a := range plan.FirstRound {
		firstRound[a.Phase] = a
	}

	for _, phase := range plan.Phases {
		match := &models.Match{TournamentID: tournamentID, Phase: phase}
		if courtID, ok := plan.PhaseCourts[phase]; ok {
			match.CourtID = &courtID
		}

		assignment, isFirstRound := firstRound[phase]
		if isFirstRound {
			courtID, startAt := assignment.CourtID, assignment.StartAt
			match.CourtID = &courtID
			match.StartTimestamp = &startAt
		}

		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			if errors.Is(err, repositories.ErrMatchInvalidCourt) {
				return stateErr(fmt.Errorf("%w (phase %s)", brackets.ErrInvalidCourt, phase))
			}
			return persistence("create match "+phase, err)
		}

		if !isFirstRound {
			continue
		}
		sides := []struct {
			slot models.TeamSlot
			team models.Team
		}{
			{models.SlotA, assignment.TeamA},
			{models.SlotB, assignment.TeamB},
		}
		for _, side := range sides {
			for _, playerID := range side.team.Players {
				mp := models.MatchPlayer{MatchID: match.ID, PlayerID: playerID, Team: side.slot}
				if err := s.matchPlayerRepo.Insert(ctx, tx, mp); err != nil {
					return persistence("assign players to "+phase, err)
				}
			}
		}
	}
	return nil
}

func (s *tournamentService) AssignCourts(ctx context.Context, tournamentID int, courtIDs []int) error {
	seen := make(map[int]bool, len(courtIDs))
	for _, id := range courtIDs {
		if id <= 0 {
			return validation(fmt.Errorf("%w (got %d)", ErrInvalidCourtID, id))
		}
		if seen[id] {
			return validation(fmt.Errorf("%w (court %d)", ErrDuplicateCourtID, id))
		}
		seen[id] = true
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		if _, err := s.lockPending(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := s.courtRepo.ReplaceForTournament(ctx, tx, tournamentID, courtIDs); err != nil {
			if errors.Is(err, repositories.ErrCourtNotFound) {
				return validation(ErrCourtNotFound)
			}
			return persistence("assign courts", err)
		}
		return nil
	})
}

func (s *tournamentService) RegisterEntrant(ctx context.Context, tournamentID, playerID int) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		if _, err := s.lockPending(ctx, tx, tournamentID); err != nil {
			return err
		}
		return mapEntrantError("register player", s.entrantRepo.Add(ctx, tx, tournamentID, playerID, nil))
	})
}

func (s *tournamentService) RegisterTeam(ctx context.Context, tournamentID, player1ID, player2ID int) (models.Team, error) {
	if player1ID == player2ID {
		return models.Team{}, validation(ErrSamePlayerTwice)
	}
	team := models.NewTeam(player1ID, player2ID)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		if _, err := s.lockPending(ctx, tx, tournamentID); err != nil {
			return err
		}
		for _, playerID := range team.Players {
			if err := s.entrantRepo.Add(ctx, tx, tournamentID, playerID, &team.Key); err != nil {
				return mapEntrantError("register team", err)
			}
		}
		return nil
	})
	if err != nil {
		return models.Team{}, err
	}
	return team, nil
}

func (s *tournamentService) RemoveEntrant(ctx context.Context, tournamentID, playerID int) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		if _, err := s.lockPending(ctx, tx, tournamentID); err != nil {
			return err
		}
		return mapEntrantError("remove player", s.entrantRepo.Remove(ctx, tx, tournamentID, playerID))
	})
}

func (s *tournamentService) RemoveTeam(ctx context.Context, tournamentID int, teamKey string) error {
	if _, _, err := models.ParseTeamKey(teamKey); err != nil {
		return validation(fmt.Errorf("%w: %s", ErrInvalidTeamKey, teamKey))
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		if _, err := s.lockPending(ctx, tx, tournamentID); err != nil {
			return err
		}
		return mapEntrantError("remove team", s.entrantRepo.RemoveTeam(ctx, tx, tournamentID, teamKey))
	})
}

func (s *tournamentService) CompleteTournament(ctx context.Context, tournamentID int) error {
	var final *models.Match

	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		tournament, err := s.lock(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusActive {
			return stateErr(fmt.Errorf("%w (status %s)", ErrTournamentNotActive, tournament.Status))
		}

		final, err = s.matchRepo.GetByPhase(ctx, tx, tournamentID, brackets.PhaseFinal, false)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return stateErr(fmt.Errorf("%w: final match is missing", ErrFinalNotDecided))
			}
			return persistence("load final", err)
		}
		if !final.Decided() {
			return stateErr(ErrFinalNotDecided)
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusCompleted); err != nil {
			return persistence("complete tournament", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("tournament completed", slog.Int("tournament_id", tournamentID), slog.Int("final_match_id", final.ID))
	publishAll(ctx, s.publisher, s.metrics, s.logger, NewEvent(EventTournamentCompleted, tournamentID, TournamentDecidedPayload{
		FinalMatchID: final.ID,
		Winner:       *final.TeamWinner,
	}))
	return nil
}

func (s *tournamentService) lock(ctx context.Context, tx repositories.SQLExecutor, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetForUpdate(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, validation(fmt.Errorf("%w (id %d)", ErrTournamentNotFound, tournamentID))
		}
		return nil, persistence("load tournament", err)
	}
	return tournament, nil
}

// lockPending блокирует строку турнира и проверяет, что он ещё не стартовал.
func (s *tournamentService) lockPending(ctx context.Context, tx repositories.SQLExecutor, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.lock(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusPending {
		return nil, stateErr(fmt.Errorf("%w (status %s)", ErrTournamentNotPending, tournament.Status))
	}
	return tournament, nil
}

func classifyBracketError(err error) error {
	switch {
	case errors.Is(err, brackets.ErrOddUngrouped),
		errors.Is(err, brackets.ErrIncompleteTeam),
		errors.Is(err, brackets.ErrTooFewTeams),
		errors.Is(err, brackets.ErrTeamsNotPowerOfTwo),
		errors.Is(err, brackets.ErrNoCourts):
		return validation(err)
	case errors.Is(err, brackets.ErrInvalidCourt),
		errors.Is(err, brackets.ErrTeamMismatch),
		errors.Is(err, brackets.ErrNoPhases):
		return stateErr(err)
	default:
		return persistence("generate bracket", err)
	}
}

func mapEntrantError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrEntrantConflict):
		return validation(ErrEntrantConflict)
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return validation(ErrPlayerNotFound)
	case errors.Is(err, repositories.ErrEntrantNotFound):
		return validation(ErrEntrantNotFound)
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return validation(ErrTournamentNotFound)
	default:
		return persistence(op, err)
	}
}
