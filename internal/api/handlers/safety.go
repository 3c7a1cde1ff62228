package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/service"
)

type SafetyHandler struct {
	safety   *service.SafetyMonitor
	contexts *service.ContextBuilder
}

func NewSafetyHandler(safety *service.SafetyMonitor, contexts *service.ContextBuilder) *SafetyHandler {
	return &SafetyHandler{safety: safety, contexts: contexts}
}

type safetyCheckRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (h *SafetyHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req safetyCheckRequest
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

	report := h.safety.PerformComprehensiveSafetyCheck(req.Message, &uc.Profile, uc.RecentLogs, uc.Now)
	writeJSON(w, http.StatusOK, report)
}
