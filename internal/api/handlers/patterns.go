package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/service"
)

type PatternsHandler struct {
	patterns *service.PatternDetectionService
	contexts *service.ContextBuilder
}

func NewPatternsHandler(patterns *service.PatternDetectionService, contexts *service.ContextBuilder) *PatternsHandler {
	return &PatternsHandler{patterns: patterns, contexts: contexts}
}

func (h *PatternsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	uc, err := h.contexts.Build(r.Context(), userID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load user context")
		return
	}

	analysis := h.patterns.AnalyzePatterns(uc)
	writeJSON(w, http.StatusOK, analysis)
}
