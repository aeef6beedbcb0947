package api

import (
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/skillup/internal/app"
	"github.com/okian/skillup/internal/domain/model"
)

// CareersHandler serves the career catalog, courses and career goals.
type CareersHandler struct {
	deps Dependencies
	errs *errorWriter
}

type careersResponse struct {
	Careers []model.Career `json:"careers"`
}

type coursesResponse struct {
	Courses []model.Course `json:"courses"`
}

type goalRequest struct {
	CareerID string `json:"careerId"`
}

type goalResponse struct {
	Status string        `json:"status"`
	Goals  service.Goals `json:"goals"`
}

// HandleList handles GET /careers.
func (h *CareersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	careers, err := h.deps.Careers(r.URL.Query().Get("q"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if careers == nil {
		careers = []model.Career{}
	}
	writeJSON(w, http.StatusOK, careersResponse{Careers: careers})
}

// HandleGet handles GET /careers/{id}.
func (h *CareersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	career, err := h.deps.Career(id)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, career)
}

// HandleCourses handles GET /courses.
func (h *CareersHandler) HandleCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.deps.Courses()
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coursesResponse{Courses: courses})
}

// HandleGoals handles GET /career-goals.
func (h *CareersHandler) HandleGoals(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Goals(r.Context(), UserID(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleAddGoal handles POST /career-goals.
func (h *CareersHandler) HandleAddGoal(w http.ResponseWriter, r *http.Request) {
	var in goalRequest
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if strings.TrimSpace(in.CareerID) == "" {
		h.errs.write(w, r, fmt.Errorf("%w: missing careerId", ErrBadRequest))
		return
	}
	uid := UserID(r.Context())
	added, err := h.deps.AddGoal(r.Context(), uid, in.CareerID)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	g, err := h.deps.Goals(r.Context(), uid)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	resp := goalResponse{Status: "added", Goals: g}
	status := http.StatusCreated
	if !added {
		resp.Status = "already_set"
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// HandleRemoveGoal handles DELETE /career-goals/{id}.
func (h *CareersHandler) HandleRemoveGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if err := h.deps.RemoveGoal(r.Context(), UserID(r.Context()), id); err != nil {
		h.errs.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearHistory handles DELETE /career-goals/history.
func (h *CareersHandler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.ClearHistory(r.Context(), UserID(r.Context())); err != nil {
		h.errs.write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSettings handles PUT /career-goals/settings.
func (h *CareersHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	var in service.SettingsUpdate
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	st, err := h.deps.UpdateSettings(r.Context(), UserID(r.Context()), in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
