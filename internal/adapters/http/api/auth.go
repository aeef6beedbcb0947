package api

import (
	"net/http"

	"github.com/okian/skillup/internal/adapters/identity"
)

// AuthHandler serves signup and login.
type AuthHandler struct {
	deps Dependencies
	errs *errorWriter
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignup handles POST /auth/signup.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var in identity.Signup
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	sess, err := h.deps.Signup(r.Context(), in)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// HandleLogin handles POST /auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decode(r, &in); err != nil {
		h.errs.write(w, r, err)
		return
	}
	sess, err := h.deps.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
