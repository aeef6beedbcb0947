package api

import (
	"net/http"

	"github.com/okian/skillup/internal/domain/model"
)

// ProfileHandler serves the profile document and the onboarding form.
type ProfileHandler struct {
	deps Dependencies
	errs *errorWriter
}

// HandleGet handles GET /profile.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.Profile(r.Context(), UserID(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleUpdate handles PUT /profile. The write is synchronous and every
// field present in the body is stored, empty strings included.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in model.DetailsPatch
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	doc, err := h.deps.UpdateProfile(r.Context(), UserID(r.Context()), in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleSubmitDetails handles POST /personal-details. The write is queued
// and the response does not wait for it.
func (h *ProfileHandler) HandleSubmitDetails(w http.ResponseWriter, r *http.Request) {
	var in model.PersonalDetails
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if err := h.deps.SubmitPersonalDetails(r.Context(), UserID(r.Context()), in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "accepted"})
}
