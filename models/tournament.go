package models

import (
	"encoding/json"
	"time"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusPending   TournamentStatus = "pending"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

// TournamentType определяет формат проведения турнира.
type TournamentType string

const (
	TypeElimination TournamentType = "elimination"
	TypeAmericana   TournamentType = "americana"
)

// DefaultMatchDuration используется, если в настройках турнира не задана длительность матча.
const DefaultMatchDuration = 90

type TournamentSettings struct {
	MatchDuration int `json:"match_duration"` // минуты
}

// Tournament представляет турнир.
type Tournament struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Type         TournamentType   `json:"type" db:"type"`
	Status       TournamentStatus `json:"status" db:"status"`
	StartDate    time.Time        `json:"start_date" db:"start_date"`
	EndDate      *time.Time       `json:"end_date,omitempty" db:"end_date"`
	SettingsJSON *string          `json:"-" db:"settings"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`

	Settings TournamentSettings `json:"settings" db:"-"`
}

// ParseSettings разбирает JSON настроек. Ошибка разбора не фатальна:
// подставляются значения по умолчанию, а ошибка возвращается для логирования.
func ParseSettings(raw *string) (TournamentSettings, error) {
	settings := TournamentSettings{MatchDuration: DefaultMatchDuration}
	if raw == nil || *raw == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(*raw), &settings); err != nil {
		return TournamentSettings{MatchDuration: DefaultMatchDuration}, err
	}
	if settings.MatchDuration <= 0 {
		settings.MatchDuration = DefaultMatchDuration
	}
	return settings, nil
}

// MatchDuration returns the configured slot length for a single match.
func (t *Tournament) MatchDuration() time.Duration {
	minutes := t.Settings.MatchDuration
	if minutes <= 0 {
		minutes = DefaultMatchDuration
	}
	return time.Duration(minutes) * time.Minute
}
