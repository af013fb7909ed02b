package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/padelflow/services"
	"github.com/go-chi/chi/v5"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	bracketService    services.BracketService
}

func NewTournamentHandler(ts services.TournamentService, bs services.BracketService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		bracketService:    bs,
	}
}

// StartHandler обрабатывает POST /tournaments/{tournamentID}/start
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.Initialize(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type assignCourtsInput struct {
	CourtIDs []int `json:"court_ids"`
}

// AssignCourtsHandler обрабатывает PUT /tournaments/{tournamentID}/courts
func (h *TournamentHandler) AssignCourtsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input assignCourtsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.AssignCourts(r.Context(), id, input.CourtIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// entrantInput: либо один игрок, либо готовая пара.
type entrantInput struct {
	PlayerID  int   `json:"player_id"`
	PlayerIDs []int `json:"player_ids"`
}

// AddEntrantHandler обрабатывает POST /tournaments/{tournamentID}/entrants
func (h *TournamentHandler) AddEntrantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input entrantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	switch {
	case input.PlayerID > 0 && len(input.PlayerIDs) == 0:
		if err := h.tournamentService.RegisterEntrant(r.Context(), id, input.PlayerID); err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusCreated, jsonResponse{"player_id": input.PlayerID}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}

	case input.PlayerID == 0 && len(input.PlayerIDs) == 2:
		team, err := h.tournamentService.RegisterTeam(r.Context(), id, input.PlayerIDs[0], input.PlayerIDs[1])
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}

	default:
		badRequestResponse(w, r, errors.New("provide either player_id or exactly two player_ids"))
	}
}

// RemoveEntrantHandler обрабатывает DELETE /tournaments/{tournamentID}/entrants/{playerID}
func (h *TournamentHandler) RemoveEntrantHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.RemoveEntrant(r.Context(), id, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTeamHandler обрабатывает DELETE /tournaments/{tournamentID}/teams/{teamKey}
func (h *TournamentHandler) RemoveTeamHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.RemoveTeam(r.Context(), id, chi.URLParam(r, "teamKey")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteHandler обрабатывает POST /tournaments/{tournamentID}/complete
func (h *TournamentHandler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.CompleteTournament(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BracketHandler обрабатывает GET /tournaments/{tournamentID}/bracket
func (h *TournamentHandler) BracketHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
