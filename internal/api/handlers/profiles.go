package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kinetichq/kinetic/internal/domain"
	"github.com/kinetichq/kinetic/internal/store"
)

type ProfilesHandler struct {
	profiles domain.ProfileStore
}

func NewProfilesHandler(profiles domain.ProfileStore) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	profile, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfilesHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var profile domain.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile.UserID = userID

	if profile.Persona == "" {
		profile.Persona = domain.PersonaGeneral
	}
	if !domain.ValidPersonaType(string(profile.Persona)) {
		writeError(w, http.StatusBadRequest, "invalid persona")
		return
	}
	if profile.PersonaConfidence < 0 || profile.PersonaConfidence > 100 {
		writeError(w, http.StatusBadRequest, "persona_confidence must be 0-100")
		return
	}

	if err := h.profiles.Upsert(r.Context(), &profile); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	writeJSON(w, http.StatusOK, &profile)
}
