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
	"github.com/Dosada05/padelflow/scoring"
)

type MatchService interface {
	// SubmitScore records a match result and moves the winners into the
	// parent match. A resubmission first removes the earlier advancement.
	// Winners take the opposite side of a sibling already in the parent,
	// otherwise the side given by the phase navigation.
	SubmitScore(ctx context.Context, matchID int, sets []scoring.RawSet) (*scoring.Result, error)
}

type matchService struct {
	tx              repositories.Transactor
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	publisher       EventPublisher
	metrics         Metrics
	logger          *slog.Logger
	now             func() time.Time
}

func NewMatchService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	publisher EventPublisher,
	metrics Metrics,
	logger *slog.Logger,
) MatchService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		tx:              tx,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		publisher:       publisher,
		metrics:         metrics,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// advancement - итог продвижения внутри транзакции.
type advancement struct {
	advanced  bool
	corrected bool
	events    []Event
}

func (s *matchService) SubmitScore(ctx context.Context, matchID int, sets []scoring.RawSet) (*scoring.Result, error) {
	// До открытия транзакции: неразрешимый счёт в хранилище не попадает.
	if len(sets) > scoring.MaxSets {
		return nil, validation(fmt.Errorf("%w (got %d)", ErrTooManySets, len(sets)))
	}
	result := scoring.CalculateWinner(sets)
	if result.Winner == nil {
		return nil, validation(fmt.Errorf("%w: %q", ErrUnresolvedScore, result.Score))
	}

	started := time.Now()
	var adv advancement
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx repositories.SQLExecutor) error {
		adv = advancement{}
		return s.recordAndAdvance(ctx, tx, matchID, result, &adv)
	})
	s.metrics.ObserveScoreSubmission(time.Since(started), err)
	if err != nil {
		s.logger.Warn("score submission failed", slog.Int("match_id", matchID), slog.Any("error", err))
		return nil, err
	}

	if adv.advanced {
		s.metrics.IncAdvancement(adv.corrected)
	}
	publishAll(ctx, s.publisher, s.metrics, s.logger, adv.events...)
	return &result, nil
}

func (s *matchService) recordAndAdvance(ctx context.Context, tx repositories.SQLExecutor, matchID int, result scoring.Result, adv *advancement) error {
	winner := *result.Winner

	match, err := s.matchRepo.GetByID(ctx, tx, matchID, true)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return validation(fmt.Errorf("%w (id %d)", ErrMatchNotFound, matchID))
		}
		return persistence("load match", err)
	}
	previousWinner := match.TeamWinner
	adv.corrected = match.Decided()

	if err := s.matchRepo.UpdateScore(ctx, tx, match.ID, result.Sets, winner, s.now()); err != nil {
		return persistence("save score", err)
	}
	adv.events = append(adv.events, NewEvent(EventScoreDecided, match.TournamentID, ScoreDecidedPayload{
		MatchID: match.ID,
		Phase:   match.Phase,
		Score:   result.Score,
		Winner:  winner,
	}))

	winners, err := s.matchPlayerRepo.ListByMatchAndTeam(ctx, tx, match.ID, winner)
	if err != nil {
		return persistence("load winning players", err)
	}
	winnerIDs := make([]int, 0, len(winners))
	for _, w := range winners {
		winnerIDs = append(winnerIDs, w.PlayerID)
	}

	if len(winners) == 0 {
		return stateErr(fmt.Errorf("%w (match %d, slot %s)", ErrWinnerWithoutPlayers, match.ID, winner))
	}

	nav := brackets.Navigate(match.Phase)
	if !nav.HasParent {
		if match.Phase != brackets.PhaseFinal {
			return stateErr(fmt.Errorf("%w: phase %q cannot be navigated", ErrParentMatchMissing, match.Phase))
		}
		// финал: продвигать некуда, турнир решён
		adv.events = append(adv.events, NewEvent(EventTournamentDecided, match.TournamentID, TournamentDecidedPayload{
			FinalMatchID: match.ID,
			Winner:       winner,
			PlayerIDs:    winnerIDs,
		}))
		return nil
	}

	parent, err := s.matchRepo.GetByPhase(ctx, tx, match.TournamentID, nav.Parent, true)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return stateErr(fmt.Errorf("%w: %s (parent of %s)", ErrParentMatchMissing, nav.Parent, match.Phase))
		}
		return persistence("load parent match", err)
	}

	if adv.corrected {
		removed, err := s.matchPlayerRepo.DeleteByWinnerFrom(ctx, tx, parent.ID, match.ID)
		if err != nil {
			return persistence("roll back advancement", err)
		}
		s.logger.Info("stale advancement rolled back",
			slog.Int("match_id", match.ID),
			slog.Int("parent_match_id", parent.ID),
			slog.Int64("rows", removed))
		if parent.Decided() && previousWinner != nil && *previousWinner != winner {
			s.logger.Warn("corrected winner changed but parent match is already decided",
				slog.Int("match_id", match.ID),
				slog.Int("parent_match_id", parent.ID))
		}
	}

	occupants, err := s.matchPlayerRepo.ListByMatch(ctx, tx, parent.ID)
	if err != nil {
		return persistence("load parent players", err)
	}
	slot := targetSlot(nav, match.ID, occupants)

	taken := 0
	for _, o := range occupants {
		if o.Team == slot {
			taken++
		}
	}
	if taken+len(winners) > models.MaxPlayersPerSlot {
		return stateErr(fmt.Errorf("%w (match %d, slot %s)", ErrSlotOccupied, parent.ID, slot))
	}

	fromID := match.ID
	for _, w := range winners {
		mp := models.MatchPlayer{MatchID: parent.ID, PlayerID: w.PlayerID, Team: slot, WinnerFrom: &fromID}
		if err := s.matchPlayerRepo.Insert(ctx, tx, mp); err != nil {
			if errors.Is(err, repositories.ErrMatchPlayerConflict) {
				return stateErr(fmt.Errorf("%w: %v", ErrSlotOccupied, err))
			}
			return persistence("advance winner", err)
		}
	}

	adv.advanced = true
	adv.events = append(adv.events, NewEvent(EventWinnerAdvanced, match.TournamentID, WinnerAdvancedPayload{
		FromMatchID: match.ID,
		ToMatchID:   parent.ID,
		ToPhase:     parent.Phase,
		Slot:        slot,
		PlayerIDs:   winnerIDs,
		Corrected:   adv.corrected,
	}))
	return nil
}

// targetSlot: если соседний матч уже продвинул победителя, занимаем
// противоположную сторону, иначе сторону по навигации фазы.
func targetSlot(nav brackets.Navigation, matchID int, occupants []models.MatchPlayer) models.TeamSlot {
	for _, o := range occupants {
		if o.WinnerFrom != nil && *o.WinnerFrom != matchID && o.Team.Valid() {
			return brackets.OppositeSlot(o.Team)
		}
	}
	return nav.Slot
}
