package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/internal/domain/skillset"
)

// SkillsHandler serves the user's skill set and the skill suggestions.
type SkillsHandler struct {
	deps Dependencies
	errs *errorWriter
}

type skillRequest struct {
	Skill string `json:"skill"`
	Level *int   `json:"level"`
}

type parseRequest struct {
	Text  string `json:"text"`
	Level *int   `json:"level"`
}

type levelRequest struct {
	Level *int `json:"level"`
}

type skillsResponse struct {
	Skills []model.Skill `json:"skills"`
}

type addSkillResponse struct {
	Added  bool          `json:"added"`
	Skills []model.Skill `json:"skills"`
}

type parseResponse struct {
	Added  []string      `json:"added"`
	Skills []model.Skill `json:"skills"`
}

type categoriesResponse struct {
	Categories []model.SkillCategory `json:"categories"`
}

type suggestionsResponse struct {
	Skills []string `json:"skills"`
}

func levelOr(level *int) int {
	if level == nil {
		return skillset.DefaultLevel
	}
	return *level
}

// HandleList handles GET /skills.
func (h *SkillsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	skills, err := h.deps.Skills(r.Context(), UserID(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skillsResponse{Skills: skills})
}

// HandleAdd handles POST /skills. Adding an existing skill is not an
// error; the response reports added=false.
func (h *SkillsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var in skillRequest
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	added, skills, err := h.deps.AddSkill(r.Context(), UserID(r.Context()), model.Skill{Name: in.Skill, Level: levelOr(in.Level)})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, addSkillResponse{Added: added, Skills: skills})
}

// HandleParse handles POST /skills/parse.
func (h *SkillsHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	var in parseRequest
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	added, skills, err := h.deps.ParseSkills(r.Context(), UserID(r.Context()), in.Text, levelOr(in.Level))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{Added: added, Skills: skills})
}

// HandleSetLevel handles PUT /skills/{name}.
func (h *SkillsHandler) HandleSetLevel(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	var in levelRequest
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	if in.Level == nil {
		h.errs.write(w, r, fmt.Errorf("%w: missing level", ErrBadRequest))
		return
	}
	skills, err := h.deps.SetSkillLevel(r.Context(), UserID(r.Context()), name, *in.Level)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skillsResponse{Skills: skills})
}

// HandleRemove handles DELETE /skills/{name}.
func (h *SkillsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	skills, err := h.deps.RemoveSkill(r.Context(), UserID(r.Context()), name)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, skillsResponse{Skills: skills})
}

// HandleCategories handles GET /skills/categories. With a category or q
// parameter it returns the matching skill names instead of the categories.
func (h *SkillsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	q := r.URL.Query().Get("q")
	if category == "" && q == "" {
		categories, err := h.deps.Categories()
		if err != nil {
			h.errs.write(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
		return
	}
	skills, err := h.deps.SuggestSkills(category, q)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	if skills == nil {
		skills = []string{}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Skills: skills})
}

// pathParam returns an unescaped chi URL parameter. chi matches on the raw
// path only when the request carries one (for example CI%2FCD); otherwise
// the parameter is already decoded.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath != "" {
		var err error
		if v, err = url.PathUnescape(v); err != nil {
			return "", fmt.Errorf("%w: invalid %s", ErrBadRequest, key)
		}
	}
	if v == "" {
		return "", fmt.Errorf("%w: invalid %s", ErrBadRequest, key)
	}
	return v, nil
}
