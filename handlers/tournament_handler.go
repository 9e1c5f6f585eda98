package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/Dosada05/arena-tournaments/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TournamentHandler struct {
	registry *services.Registry
	ready    *services.ReadyService
}

func NewTournamentHandler(registry *services.Registry, ready *services.ReadyService) *TournamentHandler {
	return &TournamentHandler{
		registry: registry,
		ready:    ready,
	}
}

type competitorInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c competitorInput) ref() (models.CompetitorRef, error) {
	if _, err := uuid.Parse(c.ID); err != nil {
		return models.CompetitorRef{}, errors.New("competitor id must be a valid UUID")
	}
	name := c.Name
	if name == "" {
		name = c.ID
	}
	return models.CompetitorRef{ID: c.ID, Name: name}, nil
}

// CreateHandler обрабатывает POST /tournaments.
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string          `json:"name"`
		Host competitorInput `json:"host"`
		models.TournamentConfig
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	host, err := input.Host.ref()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, err := h.registry.Create(r.Context(), input.Name, host, input.TournamentConfig)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": t.View(true)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// JoinHandler обрабатывает POST /tournaments/{name}/join.
func (h *TournamentHandler) JoinHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var input struct {
		Competitor competitorInput `json:"competitor"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	competitor, err := input.Competitor.ref()
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registry.Join(r.Context(), name, competitor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"joined": name}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// LeaveHandler обрабатывает POST /tournaments/leave.
func (h *TournamentHandler) LeaveHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompetitorID string `json:"competitor_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registry.Leave(r.Context(), input.CompetitorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"left": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /tournaments с фильтрами по статусу и числу
// участников.
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	var filter services.ListFilter
	query := r.URL.Query()

	if statusStr := query.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		switch status {
		case models.TournamentStatusWaiting, models.TournamentStatusInProgress, models.TournamentStatusEnded:
			filter.Status = &status
		default:
			badRequestResponse(w, r, errors.New("invalid status query parameter"))
			return
		}
	}
	if minStr := query.Get("min_participants"); minStr != "" {
		if min, err := strconv.Atoi(minStr); err == nil && min >= 0 {
			filter.MinParticipants = &min
		} else {
			badRequestResponse(w, r, errors.New("invalid min_participants query parameter"))
			return
		}
	}
	if maxStr := query.Get("max_participants"); maxStr != "" {
		if max, err := strconv.Atoi(maxStr); err == nil && max >= 0 {
			filter.MaxParticipants = &max
		} else {
			badRequestResponse(w, r, errors.New("invalid max_participants query parameter"))
			return
		}
	}

	views := h.registry.List(filter)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": views}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /tournaments/{name}.
func (h *TournamentHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := h.registry.Get(name)
	if !ok {
		mapServiceErrorToHTTP(w, r, services.ErrTournamentNotFound)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t.View(true)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /tournaments/{name}/start — ручной запуск
// хостом.
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var input struct {
		CompetitorID string `json:"competitor_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, ok := h.registry.Get(name)
	if !ok {
		mapServiceErrorToHTTP(w, r, services.ErrTournamentNotFound)
		return
	}
	if t.HostID() != input.CompetitorID {
		errorResponse(w, r, http.StatusForbidden, "only the tournament host can start it")
		return
	}

	if err := t.Start(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t.View(true)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ReadyHandler обрабатывает POST /tournaments/ready.
func (h *TournamentHandler) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompetitorID string `json:"competitor_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.ready.MarkReady(r.Context(), input.CompetitorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ready": true}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /tournaments/{name} (только админ).
func (h *TournamentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.registry.Delete(r.Context(), name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": name}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ForceResultHandler обрабатывает POST /tournaments/{name}/result (только
// админ): ручная фиксация исхода матча текущего раунда.
func (h *TournamentHandler) ForceResultHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var input struct {
		WinnerID string `json:"winner_id"`
		LoserID  string `json:"loser_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	t, ok := h.registry.Get(name)
	if !ok {
		mapServiceErrorToHTTP(w, r, services.ErrTournamentNotFound)
		return
	}

	if err := t.RecordResult(r.Context(), input.WinnerID, input.LoserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": t.View(true)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
