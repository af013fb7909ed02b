package brackets

import (
	"fmt"
	"testing"

	"github.com/Dosada05/padelflow/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBracketPhases_TwoMatches(t *testing.T) {
	assert.Equal(t, []string{"F", "A", "B"}, GenerateBracketPhases(2))
}

func TestGenerateBracketPhases_Invalid(t *testing.T) {
	for _, n := range []int{-4, 0, 1, 3, 5, 6, 12, 100} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			assert.Empty(t, GenerateBracketPhases(n))
		})
	}
}

func TestGenerateBracketPhases_Four(t *testing.T) {
	assert.Equal(t,
		[]string{"F", "A", "B", "A-1", "A-2", "B-1", "B-2"},
		GenerateBracketPhases(4))
}

func TestGenerateBracketPhases_Properties(t *testing.T) {
	for _, n := range []int{4, 8, 16, 32, 64} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			phases := GenerateBracketPhases(n)
			require.Len(t, phases, 2*n-1)

			seen := make(map[string]bool, len(phases))
			finals := 0
			for _, p := range phases {
				assert.False(t, seen[p], "duplicate phase %s", p)
				seen[p] = true
				if p == PhaseFinal {
					finals++
				}
			}
			assert.Equal(t, 1, finals)

			deepest := PhaseDepth(phases[len(phases)-1])
			atDeepest := 0
			for _, p := range phases {
				if PhaseDepth(p) == deepest {
					atDeepest++
				}
			}
			assert.Equal(t, n, atDeepest)
			assert.Len(t, FirstRoundPhases(phases, n), n)

			// every non-final phase has its parent in the list
			for _, p := range phases {
				nav := Navigate(p)
				if p == PhaseFinal {
					assert.False(t, nav.HasParent)
					continue
				}
				require.True(t, nav.HasParent, p)
				assert.True(t, seen[nav.Parent], "parent %s of %s missing", nav.Parent, p)
			}
		})
	}
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		phase     string
		parent    string
		slot      models.TeamSlot
		hasParent bool
	}{
		{"F", "", "", false},
		{"A", "F", models.SlotA, true},
		{"B", "F", models.SlotB, true},
		{"A-1", "A", models.SlotA, true},
		{"A-2", "A", models.SlotB, true},
		{"B-1", "B", models.SlotA, true},
		{"B-2-1", "B-2", models.SlotA, true},
		{"A-1-2", "A-1", models.SlotB, true},
		{" A-2 ", "A", models.SlotB, true},
		{"", "", "", false},
		{"X", "", "", false},
		{"A-x", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			nav := Navigate(tt.phase)
			assert.Equal(t, tt.hasParent, nav.HasParent)
			assert.Equal(t, tt.parent, nav.Parent)
			assert.Equal(t, tt.slot, nav.Slot)
		})
	}
}

func TestOppositeSlot(t *testing.T) {
	assert.Equal(t, models.SlotB, OppositeSlot(models.SlotA))
	assert.Equal(t, models.SlotA, OppositeSlot(models.SlotB))
	assert.Equal(t, models.SlotA, OppositeSlot(""))
}

func TestRoundLabel(t *testing.T) {
	assert.Equal(t, "final", RoundLabel("F"))
	assert.Equal(t, "semifinal", RoundLabel("B"))
	assert.Equal(t, "quarterfinal", RoundLabel("A-2"))
	assert.Equal(t, "round_of_16", RoundLabel("A-2-1"))
	assert.Equal(t, "round_of_128", RoundLabel("A-1-1-1-1-1"))
}
