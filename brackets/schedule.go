package brackets

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/padelflow/models"
)

var (
	ErrNoCourts     = errors.New("no courts assigned to this tournament")
	ErrInvalidCourt = errors.New("assigned court is invalid or missing id")
	ErrTeamMismatch = errors.New("team count does not match first round phases")
)

// Assignment - матч первого раунда с кортом и временем начала.
type Assignment struct {
	Phase   string
	CourtID int
	StartAt time.Time
	TeamA   models.Team
	TeamB   models.Team
}

// ScheduleFirstRound walks first round phases and consecutive team pairs in
// lockstep, handing out courts round-robin. Each court keeps its own next
// free time, so matches on the same court never overlap.
func ScheduleFirstRound(phases []string, teams []models.Team, courts []models.Court, start time.Time, matchDuration time.Duration) ([]Assignment, error) {
	if len(courts) == 0 {
		return nil, ErrNoCourts
	}
	if len(teams) != len(phases)*2 {
		return nil, fmt.Errorf("%w: %d teams for %d matches", ErrTeamMismatch, len(teams), len(phases))
	}

	nextFree := make(map[int]time.Time, len(courts))
	for _, c := range courts {
		nextFree[c.ID] = start
	}

	assignments := make([]Assignment, 0, len(phases))
	courtIndex := 0
	for i, phase := range phases {
		court := courts[courtIndex]
		if court.ID <= 0 {
			return nil, fmt.Errorf("%w (phase %s)", ErrInvalidCourt, phase)
		}

		startAt := nextFree[court.ID]
		assignments = append(assignments, Assignment{
			Phase:   phase,
			CourtID: court.ID,
			StartAt: startAt,
			TeamA:   teams[i*2],
			TeamB:   teams[i*2+1],
		})

		nextFree[court.ID] = startAt.Add(matchDuration)
		courtIndex = (courtIndex + 1) % len(courts)
	}

	return assignments, nil
}

// AssignCourts gives every bracket phase a best-effort court (courts[i % n]),
// so later rounds have a court before they become playable.
func AssignCourts(phases []string, courts []models.Court) (map[string]int, error) {
	if len(courts) == 0 {
		return nil, ErrNoCourts
	}
	out := make(map[string]int, len(phases))
	for i, phase := range phases {
		court := courts[i%len(courts)]
		if court.ID <= 0 {
			return nil, fmt.Errorf("%w (phase %s)", ErrInvalidCourt, phase)
		}
		out[phase] = court.ID
	}
	return out, nil
}
