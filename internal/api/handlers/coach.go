package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/service"
)

type CoachHandler struct {
	orchestrator *service.CoachingDecisionOrchestrator
	contexts     *service.ContextBuilder
}

func NewCoachHandler(orchestrator *service.CoachingDecisionOrchestrator, contexts *service.ContextBuilder) *CoachHandler {
	return &CoachHandler{orchestrator: orchestrator, contexts: contexts}
}

type coachRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (h *CoachHandler) Coach(w http.ResponseWriter, r *http.Request) {
	var req coachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	uc, err := h.contexts.Build(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user context")
		return
	}

	resp := h.orchestrator.GenerateResponse(req.Message, uc)
	writeJSON(w, http.StatusOK, resp)
}
