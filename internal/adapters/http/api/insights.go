package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/skillup/internal/domain/matcher"
	"github.com/okian/skillup/internal/domain/model"
)

// InsightsHandler serves the gap analysis, recommendations, progress and
// dashboard views.
type InsightsHandler struct {
	deps Dependencies
	errs *errorWriter
}

type gapResponse struct {
	Career        *model.Career  `json:"career"`
	MissingSkills []string       `json:"missingSkills"`
	LearningPath  []model.Course `json:"learningPath"`
}

// HandleGap handles GET /gap.
func (h *InsightsHandler) HandleGap(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Gap(r.Context(), UserID(r.Context()), r.URL.Query().Get("career"), matcher.Filter{})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gapResponse{Career: g.Career, MissingSkills: g.MissingSkills, LearningPath: g.LearningPath})
}

// HandleRecommendations handles GET /recommendations.
func (h *InsightsHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := matcher.Filter{
		Platform: q.Get("platform"),
		Skill:    q.Get("skill"),
		Cost:     strings.ToLower(q.Get("cost")),
	}
	switch f.Cost {
	case "", matcher.CostAll, matcher.CostFree, matcher.CostPaid:
	default:
		h.errs.write(w, r, fmt.Errorf("%w: cost must be all, free or paid", ErrBadRequest))
		return
	}
	g, err := h.deps.Gap(r.Context(), UserID(r.Context()), q.Get("career"), f)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// HandleProgress handles GET /progress.
func (h *InsightsHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Progress(r.Context(), UserID(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleDashboard handles GET /dashboard.
func (h *InsightsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Dashboard(r.Context(), UserID(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
