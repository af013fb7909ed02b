package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/padelflow/models"
)

var (
	ErrOddUngrouped       = errors.New("odd number of ungrouped players")
	ErrIncompleteTeam     = errors.New("pre-existing team must have exactly two players")
	ErrTooFewTeams        = errors.New("at least 2 teams are required to start the tournament")
	ErrTeamsNotPowerOfTwo = errors.New("number of teams must be a power of 2 (2, 4, 8, 16, ...)")
)

// NewPair is a team formed by the allocator that still has to be persisted.
type NewPair struct {
	Team    models.Team
	Members [2]models.Entrant
}

// Pairing is the result of grouping entrants into teams.
type Pairing struct {
	Existing []models.Team
	New      []NewPair
}

// Teams returns the ordered team list: pre-existing teams first, then the new ones.
func (p *Pairing) Teams() []models.Team {
	teams := make([]models.Team, 0, len(p.Existing)+len(p.New))
	teams = append(teams, p.Existing...)
	for _, np := range p.New {
		teams = append(teams, np.Team)
	}
	return teams
}

// PairEntrants groups tournament entrants into doubles teams. Entrants that
// already carry a team key keep it; the rest are sorted by ranking, best
// first, and paired with their neighbour (1 with 2, 3 with 4, ...).
func PairEntrants(entrants []models.Entrant) (*Pairing, error) {
	groups := make(map[string][]models.Entrant)
	var groupOrder []string
	var ungrouped []models.Entrant

	for _, e := range entrants {
		if !e.Grouped() {
			ungrouped = append(ungrouped, e)
			continue
		}
		key := *e.TeamKey
		if _, ok := groups[key]; !ok {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], e)
	}

	if len(ungrouped)%2 != 0 {
		return nil, ErrOddUngrouped
	}

	pairing := &Pairing{
		Existing: make([]models.Team, 0, len(groupOrder)),
		New:      make([]NewPair, 0, len(ungrouped)/2),
	}

	for _, key := range groupOrder {
		members := groups[key]
		if len(members) != 2 {
			return nil, fmt.Errorf("%w: team %s has %d", ErrIncompleteTeam, key, len(members))
		}
		team := models.NewTeam(members[0].PlayerID, members[1].PlayerID)
		// ключ команды из БД сохраняем как есть, он уже записан у игроков
		team.Key = key
		pairing.Existing = append(pairing.Existing, team)
	}

	sort.SliceStable(ungrouped, func(i, j int) bool {
		return ungrouped[i].Ranking > ungrouped[j].Ranking
	})
	for i := 0; i < len(ungrouped); i += 2 {
		p1, p2 := ungrouped[i], ungrouped[i+1]
		pairing.New = append(pairing.New, NewPair{
			Team:    models.NewTeam(p1.PlayerID, p2.PlayerID),
			Members: [2]models.Entrant{p1, p2},
		})
	}

	numTeams := len(pairing.Existing) + len(pairing.New)
	if numTeams < 2 {
		return nil, fmt.Errorf("%w (found %d)", ErrTooFewTeams, numTeams)
	}
	if !isPowerOfTwo(numTeams) {
		return nil, fmt.Errorf("%w (found %d)", ErrTeamsNotPowerOfTwo, numTeams)
	}

	return pairing, nil
}
