package brackets

import (
	"context"
	"time"

	"github.com/Dosada05/padelflow/models"
)

type GenerateBracketParams struct {
	Tournament *models.Tournament
	Entrants   []models.Entrant
	Courts     []models.Court
	StartAt    time.Time
}

// BracketPlan - всё, что нужно записать в БД при старте турнира.
type BracketPlan struct {
	Pairing     *Pairing
	Phases      []string
	PhaseCourts map[string]int
	FirstRound  []Assignment
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*BracketPlan, error)

	GetName() string
}
