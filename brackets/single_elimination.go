package brackets

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoPhases = errors.New("bracket generation produced no phases")

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket pairs entrants, lays out the phase tree and schedules the
// first round. It performs no I/O; validation errors leave nothing behind.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*BracketPlan, error) {
	if len(params.Courts) == 0 {
		return nil, ErrNoCourts
	}

	pairing, err := PairEntrants(params.Entrants)
	if err != nil {
		return nil, err
	}
	teams := pairing.Teams()
	numMatches := len(teams) / 2

	var phases []string
	if numMatches == 1 {
		// две пары: единственный матч и есть финал
		phases = []string{PhaseFinal}
	} else {
		phases = GenerateBracketPhases(numMatches)
	}
	if len(phases) == 0 {
		return nil, fmt.Errorf("%w for %d first round matches", ErrNoPhases, numMatches)
	}

	phaseCourts, err := AssignCourts(phases, params.Courts)
	if err != nil {
		return nil, err
	}

	duration := params.Tournament.MatchDuration()
	firstRound, err := ScheduleFirstRound(FirstRoundPhases(phases, numMatches), teams, params.Courts, params.StartAt, duration)
	if err != nil {
		return nil, err
	}

	return &BracketPlan{
		Pairing:     pairing,
		Phases:      phases,
		PhaseCourts: phaseCourts,
		FirstRound:  firstRound,
	}, nil
}
