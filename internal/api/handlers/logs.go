package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
	"go.uber.org/zap"
)

type LogsHandler struct {
	logs   domain.ActivityLogStore
	parser domain.ActivityParser
	logger *zap.Logger
}

func NewLogsHandler(logs domain.ActivityLogStore, parser domain.ActivityParser, logger *zap.Logger) *LogsHandler {
	return &LogsHandler{logs: logs, parser: parser, logger: logger}
}

type createLogRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
	// LoggedAt optionally backdates the entry (RFC 3339).
	LoggedAt string `json:"logged_at,omitempty"`
}

// Create parses free text into a structured log and persists it. Parser
// failures are not fatal: the text is stored as a zero-confidence log so
// the coaching path can still ask about it.
func (h *LogsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	log, err := h.parser.ParseActivity(r.Context(), userID, req.Text)
	if err != nil {
		h.logger.Warn("activity parse failed, storing zero-confidence log",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		log = &domain.ActivityLog{
			UserID:     userID,
			Category:   domain.CategoryMood,
			Confidence: domain.ParseConfidenceZero,
			Fields:     map[string]any{},
			RawText:    req.Text,
		}
	}

	if req.LoggedAt != "" {
		at, err := time.Parse(time.RFC3339, req.LoggedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid logged_at, want RFC 3339")
			return
		}
		log.LoggedAt = at
	}

	if err := h.logs.Create(r.Context(), log); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store log")
		return
	}

	writeJSON(w, http.StatusCreated, log)
}

func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		limit, err = strconv.Atoi(q)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	logs, err := h.logs.ListRecent(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	if logs == nil {
		logs = []domain.ActivityLog{}
	}

	writeJSON(w, http.StatusOK, logs)
}
