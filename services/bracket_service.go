package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/padelflow/brackets"
	"github.com/Dosada05/padelflow/models"
	"github.com/Dosada05/padelflow/repositories"
	"golang.org/x/sync/errgroup"
)

// MatchView - матч сетки вместе с составами сторон.
type MatchView struct {
	*models.Match
	Round string               `json:"round"`
	Score string               `json:"score"`
	TeamA []models.MatchPlayer `json:"team_a"`
	TeamB []models.MatchPlayer `json:"team_b"`
}

type RoundView struct {
	Label   string      `json:"label"`
	Depth   int         `json:"depth"`
	Matches []MatchView `json:"matches"`
}

// BracketView is the read model of a whole tournament bracket, first round first.
type BracketView struct {
	Tournament *models.Tournament `json:"tournament"`
	Courts     []models.Court     `json:"courts"`
	Rounds     []RoundView        `json:"rounds"`
}

type BracketService interface {
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
}

type bracketService struct {
	tournamentRepo  repositories.TournamentRepository
	courtRepo       repositories.CourtRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	logger          *slog.Logger
}

func NewBracketService(
	tournamentRepo repositories.TournamentRepository,
	courtRepo repositories.CourtRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	logger *slog.Logger,
) BracketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		tournamentRepo:  tournamentRepo,
		courtRepo:       courtRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		logger:          logger,
	}
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	var (
		tournament *models.Tournament
		courts     []models.Court
		matches    []*models.Match
		players    []models.MatchPlayer
	)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Турнир
	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, nil, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return validation(fmt.Errorf("%w (id %d)", ErrTournamentNotFound, tournamentID))
			}
			return persistence("load tournament", err)
		}
		tournament = t
		return nil
	})

	// 2. Корты
	g.Go(func() error {
		c, err := s.courtRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return persistence("load courts", err)
		}
		courts = c
		return nil
	})

	// 3. Матчи
	g.Go(func() error {
		m, err := s.matchRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return persistence("load matches", err)
		}
		matches = m
		return nil
	})

	// 4. Составы матчей
	g.Go(func() error {
		p, err := s.matchPlayerRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return persistence("load match players", err)
		}
		players = p
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to load bracket", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return nil, err
	}

	if courts == nil {
		courts = []models.Court{}
	}
	return &BracketView{
		Tournament: tournament,
		Courts:     courts,
		Rounds:     buildRounds(matches, players),
	}, nil
}

func buildRounds(matches []*models.Match, players []models.MatchPlayer) []RoundView {
	byMatch := make(map[int][]models.MatchPlayer, len(matches))
	for _, p := range players {
		byMatch[p.MatchID] = append(byMatch[p.MatchID], p)
	}

	byDepth := make(map[int][]MatchView)
	for _, m := range matches {
		view := MatchView{
			Match: m,
			Round: brackets.RoundLabel(m.Phase),
			Score: m.ScoreString(),
			TeamA: []models.MatchPlayer{},
			TeamB: []models.MatchPlayer{},
		}
		for _, p := range byMatch[m.ID] {
			switch p.Team {
			case models.SlotA:
				view.TeamA = append(view.TeamA, p)
			case models.SlotB:
				view.TeamB = append(view.TeamB, p)
			}
		}
		depth := brackets.PhaseDepth(m.Phase)
		byDepth[depth] = append(byDepth[depth], view)
	}

	depths := make([]int, 0, len(byDepth))
	for d := range byDepth {
		depths = append(depths, d)
	}
	// первый раунд (самый глубокий) идёт первым, финал последним
	sort.Sort(sort.Reverse(sort.IntSlice(depths)))

	rounds := make([]RoundView, 0, len(depths))
	for _, d := range depths {
		list := byDepth[d]
		sort.SliceStable(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		label := "unknown"
		if len(list) > 0 {
			label = list[0].Round
		}
		rounds = append(rounds, RoundView{Label: label, Depth: d, Matches: list})
	}
	return rounds
}
