package handlers

import (
	"net/http"

	"github.com/Dosada05/arena-tournaments/services"
)

type BattleHandler struct {
	adapter *services.BattleOutcomeAdapter
}

func NewBattleHandler(adapter *services.BattleOutcomeAdapter) *BattleHandler {
	return &BattleHandler{adapter: adapter}
}

// OutcomeHandler обрабатывает POST /battles/outcome — обратный вызов
// движка боёв с парой победитель/проигравший.
func (h *BattleHandler) OutcomeHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WinnerID string `json:"winner_id"`
		LoserID  string `json:"loser_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.adapter.HandleOutcome(r.Context(), input.WinnerID, input.LoserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"recorded": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
