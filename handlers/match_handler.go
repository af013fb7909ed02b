package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/padelflow/brackets"
	"github.com/Dosada05/padelflow/scoring"
	"github.com/Dosada05/padelflow/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type submitScoreInput struct {
	Sets []scoring.RawSet `json:"sets"`
}

// SubmitScoreHandler обрабатывает POST /matches/{matchID}/score
func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input submitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.SubmitScore(r.Context(), matchID, input.Sets)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match_id": matchID, "result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PhasesHandler обрабатывает GET /brackets/phases?matches=n. Чистая функция, без БД.
func PhasesHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("matches")
	if raw == "" {
		badRequestResponse(w, r, errors.New("matches query parameter is required"))
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequestResponse(w, r, errors.New("invalid matches query parameter"))
		return
	}

	phases := brackets.GenerateBracketPhases(n)
	if len(phases) == 0 {
		badRequestResponse(w, r, services.ErrInvalidMatchCount)
		return
	}

	labels := make(map[string]string, len(phases))
	for _, p := range phases {
		labels[p] = brackets.RoundLabel(p)
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"phases": phases, "rounds": labels}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
