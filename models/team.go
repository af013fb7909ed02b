package models

import "fmt"

// Team is a doubles pair. Players are kept in ascending id order.
type Team struct {
	Key     string `json:"key"`
	Players [2]int `json:"players"`
}

// TeamKey builds the composite "lesser-greater" key of a pair.
func TeamKey(p1, p2 int) string {
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return fmt.Sprintf("%d-%d", p1, p2)
}

func NewTeam(p1, p2 int) Team {
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return Team{Key: TeamKey(p1, p2), Players: [2]int{p1, p2}}
}

// ParseTeamKey splits a "lesser-greater" key back into player ids.
func ParseTeamKey(key string) (int, int, error) {
	var p1, p2 int
	if _, err := fmt.Sscanf(key, "%d-%d", &p1, &p2); err != nil {
		return 0, 0, fmt.Errorf("invalid team key %q: %w", key, err)
	}
	if p1 <= 0 || p2 <= 0 || p1 >= p2 || TeamKey(p1, p2) != key {
		return 0, 0, fmt.Errorf("invalid team key %q", key)
	}
	return p1, p2, nil
}
