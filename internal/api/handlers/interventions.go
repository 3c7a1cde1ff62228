package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/service"
	"github.com/kinetichq/kinetic/internal/store"
)

type InterventionsHandler struct {
	engine   *service.AdaptiveInterventionEngine
	contexts *service.ContextBuilder
}

func NewInterventionsHandler(engine *service.AdaptiveInterventionEngine, contexts *service.ContextBuilder) *InterventionsHandler {
	return &InterventionsHandler{engine: engine, contexts: contexts}
}

func (h *InterventionsHandler) Select(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	uc, err := h.contexts.Build(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user context")
		return
	}

	intervention, err := h.engine.SelectOptimalIntervention(r.Context(), uc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to select intervention")
		return
	}
	if intervention == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, intervention)
}

type outcomeRequest struct {
	UserID               string `json:"user_id"`
	Engaged              bool   `json:"engaged"`
	ActionTaken          bool   `json:"action_taken"`
	SuccessConditionsMet int    `json:"success_conditions_met"`
	Feedback             int    `json:"feedback"`
}

func (h *InterventionsHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "id")

	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	uc, err := h.contexts.Build(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user context")
		return
	}

	outcome := domain.InterventionOutcome{
		Engaged:              req.Engaged,
		ActionTaken:          req.ActionTaken,
		SuccessConditionsMet: req.SuccessConditionsMet,
		Feedback:             req.Feedback,
	}

	if err := h.engine.RecordOutcome(r.Context(), uc, templateID, outcome); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no usage recorded for this intervention")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *InterventionsHandler) Graduated(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	uc, err := h.contexts.Build(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user context")
		return
	}

	graduated := h.engine.GetGraduatedIntervention(uc.Profile.Persona, uc.Profile.HabitLevel, recentSuccessRate(uc))
	writeJSON(w, http.StatusOK, graduated)
}

// recentSuccessRate approximates adherence from log consistency over the
// last week: days with any log over days elapsed.
func recentSuccessRate(uc *domain.UserContext) float64 {
	days := map[string]bool{}
	cutoff := uc.Now.AddDate(0, 0, -7)
	for _, l := range uc.RecentLogs {
		if l.LoggedAt.After(cutoff) {
			days[l.LoggedAt.Format("2006-01-02")] = true
		}
	}
	return float64(len(days)) / 7
}
