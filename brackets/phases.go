package brackets

import (
	"strconv"
	"strings"

	"github.com/Dosada05/padelflow/models"
)

const (
	PhaseFinal = "F"
	PhaseSemiA = "A"
	PhaseSemiB = "B"
)

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// GenerateBracketPhases returns every phase label of a bracket whose first
// round has n matches, level by level starting from the final. n must be a
// power of two and at least 2, otherwise the result is empty.
func GenerateBracketPhases(n int) []string {
	if n < 2 || !isPowerOfTwo(n) {
		return []string{}
	}

	// Сетка из двух полуфиналов отдаётся как есть, без общего цикла.
	if n == 2 {
		return []string{PhaseFinal, PhaseSemiA, PhaseSemiB}
	}

	phases := []string{PhaseFinal}
	currentLevel := []string{PhaseFinal}

	for len(currentLevel) < n {
		nextLevel := make([]string, 0, len(currentLevel)*2)
		for _, phase := range currentLevel {
			if phase == PhaseFinal {
				nextLevel = append(nextLevel, PhaseSemiA, PhaseSemiB)
				continue
			}
			nextLevel = append(nextLevel, phase+"-1", phase+"-2")
		}
		phases = append(phases, nextLevel...)
		currentLevel = nextLevel
	}

	return phases
}

// FirstRoundPhases returns the deepest level of a generated phase list.
func FirstRoundPhases(phases []string, matchCount int) []string {
	if matchCount <= 0 || matchCount > len(phases) {
		return nil
	}
	return phases[len(phases)-matchCount:]
}

// Navigation describes where the winner of a phase goes.
type Navigation struct {
	Parent    string
	Slot      models.TeamSlot
	Children  []string
	HasParent bool
}

// Navigate resolves the parent phase and the slot a winner occupies there.
// "F" has no parent; "A"/"B" feed the final on their own slot; "P-k" feeds
// "P" on slot A when k is odd and slot B when k is even.
func Navigate(phase string) Navigation {
	phase = strings.TrimSpace(phase)
	switch phase {
	case "":
		return Navigation{}
	case PhaseFinal:
		return Navigation{Children: []string{PhaseSemiA, PhaseSemiB}}
	case PhaseSemiA, PhaseSemiB:
		return Navigation{
			Parent:    PhaseFinal,
			Slot:      models.TeamSlot(phase),
			Children:  []string{phase + "-1", phase + "-2"},
			HasParent: true,
		}
	}

	idx := strings.LastIndex(phase, "-")
	if idx <= 0 || idx == len(phase)-1 {
		return Navigation{}
	}
	k, err := strconv.Atoi(phase[idx+1:])
	if err != nil {
		return Navigation{}
	}

	slot := models.SlotB
	if k%2 != 0 {
		slot = models.SlotA
	}
	return Navigation{
		Parent:    phase[:idx],
		Slot:      slot,
		Children:  []string{phase + "-1", phase + "-2"},
		HasParent: true,
	}
}

// OppositeSlot returns the other side of a match. Anything that is not a
// valid slot maps to A.
func OppositeSlot(slot models.TeamSlot) models.TeamSlot {
	switch slot {
	case models.SlotA:
		return models.SlotB
	case models.SlotB:
		return models.SlotA
	default:
		return models.SlotA
	}
}

// PhaseDepth: 0 for the final, 1 for semifinals, and one more per "-k" segment.
func PhaseDepth(phase string) int {
	switch phase {
	case PhaseFinal:
		return 0
	case "":
		return -1
	}
	return strings.Count(phase, "-") + 1
}

// RoundLabel возвращает ключ названия раунда для отображения.
func RoundLabel(phase string) string {
	switch PhaseDepth(phase) {
	case 0:
		return "final"
	case 1:
		return "semifinal"
	case 2:
		return "quarterfinal"
	case 3:
		return "round_of_16"
	case 4:
		return "round_of_32"
	case 5:
		return "round_of_64"
	case 6:
		return "round_of_128"
	default:
		return phase
	}
}
