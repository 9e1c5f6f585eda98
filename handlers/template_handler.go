package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/arena-tournaments/models"
	"github.com/Dosada05/arena-tournaments/services"
	"github.com/go-chi/chi/v5"
)

type TemplateHandler struct {
	scheduler *services.Scheduler
}

func NewTemplateHandler(scheduler *services.Scheduler) *TemplateHandler {
	return &TemplateHandler{scheduler: scheduler}
}

// CreateHandler обрабатывает POST /templates (только админ).
func (h *TemplateHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name            string          `json:"name"`
		MaxParticipants int             `json:"max_participants"`
		Host            competitorInput `json:"host"`
		Period          string          `json:"period"`
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
	period, err := time.ParseDuration(input.Period)
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrTemplateInvalidPeriod)
		return
	}

	tpl := models.TournamentTemplate{
		Name:            input.Name,
		MaxParticipants: input.MaxParticipants,
		Host:            host,
		Period:          period,
	}
	if err := h.scheduler.AddTemplate(r.Context(), tpl); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"template": tpl}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /templates (только админ).
func (h *TemplateHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	templates := h.scheduler.ListTemplates()
	if err := writeJSON(w, http.StatusOK, jsonResponse{"templates": templates}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /templates/{name} (только админ).
func (h *TemplateHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.scheduler.RemoveTemplate(r.Context(), name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"deleted": name}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
