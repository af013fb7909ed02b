// Package scoring decides padel sets and best-of-three matches from raw game counts.
package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Dosada05/padelflow/models"
)

// MaxSets - матч играется до двух выигранных сетов из трёх.
const MaxSets = 3

const setsToWin = 2

// Games is a raw game count as submitted by the scorer. It accepts JSON
// numbers, strings and null; the empty string and null mean "not played".
// Fractional numbers are truncated, strings are read up to the first
// non-digit, so 6.0 and "6.0" both count as 6.
type Games string

func (g *Games) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = Games(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("games must be a number or a string: %w", err)
	}
	*g = Games(n.String())
	if f, err := n.Float64(); err == nil && math.Abs(f) <= math.MaxInt32 {
		*g = Games(strconv.FormatInt(int64(math.Trunc(f)), 10))
	}
	return nil
}

// Int parses the leading integer of the count. ok is false for empty,
// non-numeric or negative values.
func (g Games) Int() (n int, ok bool) {
	s := strings.TrimSpace(string(g))
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// RawSet is one set as entered: games won by side A and side B.
type RawSet struct {
	A Games `json:"a"`
	B Games `json:"b"`
}

// Result of a winner calculation. Winner is nil when neither side reached
// two sets (draw or incomplete).
type Result struct {
	Score  string                   `json:"score"`
	Winner *models.TeamSlot         `json:"winner"`
	Sets   [MaxSets]models.SetScore `json:"-"`
}

// SetWinner returns the side that took the set, or "" when the set is not
// finished: a side needs six games with a two game margin, or a 7-6 tiebreak.
func SetWinner(a, b int) models.TeamSlot {
	switch {
	case (a >= 6 && a >= b+2) || (a == 7 && b == 6):
		return models.SlotA
	case (b >= 6 && b >= a+2) || (b == 7 && a == 6):
		return models.SlotB
	default:
		return ""
	}
}

// CalculateWinner evaluates every set independently. Sets with a missing or
// invalid count are skipped entirely and credit neither side.
func CalculateWinner(sets []RawSet) Result {
	var res Result
	var wonA, wonB int
	scoreArr := make([]string, 0, len(sets))

	for i, set := range sets {
		a, okA := set.A.Int()
		b, okB := set.B.Int()
		if !okA || !okB {
			continue
		}

		scoreArr = append(scoreArr, fmt.Sprintf("%d-%d", a, b))
		if i < MaxSets {
			res.Sets[i] = models.SetScore{A: intPtr(a), B: intPtr(b)}
		}

		switch SetWinner(a, b) {
		case models.SlotA:
			wonA++
		case models.SlotB:
			wonB++
		}
	}

	res.Score = strings.Join(scoreArr, ", ")

	var winner models.TeamSlot
	if wonA >= setsToWin {
		winner = models.SlotA
	} else if wonB >= setsToWin {
		winner = models.SlotB
	}
	if winner != "" {
		res.Winner = &winner
	}
	return res
}

func intPtr(v int) *int {
	return &v
}
