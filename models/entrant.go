package models

import "time"

// Entrant - игрок, зарегистрированный в турнире (строка tournament_players).
type Entrant struct {
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	PlayerID     int       `json:"player_id" db:"player_id"`
	Name         string    `json:"name" db:"name"`
	Ranking      float64   `json:"ranking" db:"ranking"`
	TeamKey      *string   `json:"team_key,omitempty" db:"players_team_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (e Entrant) Grouped() bool {
	return e.TeamKey != nil && *e.TeamKey != ""
}
