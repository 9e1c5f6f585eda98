package handlers

import (
	"net/http"

	"github.com/Dosada05/arena-tournaments/services"
	"github.com/go-chi/chi/v5"
)

type RatingHandler struct {
	ratings *services.RatingService
}

func NewRatingHandler(ratings *services.RatingService) *RatingHandler {
	return &RatingHandler{ratings: ratings}
}

// LeaderboardHandler обрабатывает GET /ratings.
func (h *RatingHandler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	records := h.ratings.Leaderboard()
	if err := writeJSON(w, http.StatusOK, jsonResponse{"ratings": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /ratings/{competitorID}.
func (h *RatingHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	competitorID := chi.URLParam(r, "competitorID")
	record, ok := h.ratings.Get(competitorID)
	if !ok {
		mapServiceErrorToHTTP(w, r, services.ErrRatingNotFound)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rating": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetHandler обрабатывает POST /ratings/reset (только админ): срез топ-N,
// награды по местам, возврат всех рейтингов к базовому значению.
func (h *RatingHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TopN int `json:"top_n"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	top, err := h.ratings.Reset(r.Context(), input.TopN)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"final_standings": top}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
