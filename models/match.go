package models

import (
	"fmt"
	"strings"
	"time"
)

// TeamSlot - сторона матча, которую занимает пара.
type TeamSlot string

const (
	SlotA TeamSlot = "A"
	SlotB TeamSlot = "B"
)

func (s TeamSlot) Valid() bool {
	return s == SlotA || s == SlotB
}

// SetScore - счёт одного сета в геймах. nil означает, что сет не сыгран.
type SetScore struct {
	A *int `json:"a"`
	B *int `json:"b"`
}

func (s SetScore) Played() bool {
	return s.A != nil && s.B != nil
}

type Match struct {
	ID             int         `json:"id" db:"id"`
	TournamentID   int         `json:"tournament_id" db:"tournament_id"`
	Phase          string      `json:"phase" db:"phase"`
	CourtID        *int        `json:"court_id,omitempty" db:"court_id"`
	StartTimestamp *time.Time  `json:"start_timestamp,omitempty" db:"start_timestamp"`
	EndTimestamp   *time.Time  `json:"end_timestamp,omitempty" db:"end_timestamp"`
	Sets           [3]SetScore `json:"sets" db:"-"`
	TeamWinner     *TeamSlot   `json:"team_winner,omitempty" db:"team_winner"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Decided reports whether a winner has been recorded for the match.
func (m *Match) Decided() bool {
	return m.TeamWinner != nil && m.TeamWinner.Valid()
}

// ScoreString formats played sets as "6-2, 4-6, 7-6".
func (m *Match) ScoreString() string {
	parts := make([]string, 0, len(m.Sets))
	for _, set := range m.Sets {
		if !set.Played() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d-%d", *set.A, *set.B))
	}
	return strings.Join(parts, ", ")
}

// MatchPlayer связывает игрока со стороной матча. WinnerFrom заполнен,
// если строка появилась в результате продвижения победителя дочернего матча.
type MatchPlayer struct {
	MatchID    int      `json:"match_id" db:"match_id"`
	PlayerID   int      `json:"player_id" db:"player_id"`
	Team       TeamSlot `json:"team" db:"team"`
	WinnerFrom *int     `json:"winner_from,omitempty" db:"winner_from"`
	Name       string   `json:"name,omitempty" db:"-"`
}

// MaxPlayersPerSlot - парный разряд, по два игрока на сторону.
const MaxPlayersPerSlot = 2
