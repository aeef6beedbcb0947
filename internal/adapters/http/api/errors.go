package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/skillup/internal/adapters/identity"
	"github.com/okian/skillup/internal/adapters/repository"
	service "github.com/okian/skillup/internal/app"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/catalog"
	"github.com/okian/skillup/pkg/logger"
	"github.com/okian/skillup/pkg/metrics"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("missing or invalid token")
)

// Messages shown for failures that carry no user-facing text of their own.
const (
	msgUserDataNotFound = "User data not found"
	msgGeneric          = "Something went wrong. Please try again later."
)

// errorWriter translates domain errors into HTTP responses in one place.
type errorWriter struct {
	deps   Dependencies
	logger logger.Logger
}

func (e *errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := e.classify(err)
	if status >= http.StatusInternalServerError {
		metrics.RecordErrorByComponent("api", code)
		e.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("method", r.Method),
			logger.Error(err),
		)
	}
	writeError(w, status, code, msg)
}

func (e *errorWriter) classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request", strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": ")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized", e.deps.AuthMessage(identity.ErrInvalidToken)

	case errors.Is(err, identity.ErrEmailInUse):
		return http.StatusConflict, "email_in_use", e.deps.AuthMessage(err)
	case errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest, "weak_password", e.deps.AuthMessage(err)
	case errors.Is(err, identity.ErrPasswordTooLong):
		return http.StatusBadRequest, "password_too_long", e.deps.AuthMessage(err)
	case errors.Is(err, identity.ErrPasswordMismatch):
		return http.StatusBadRequest, "password_mismatch", e.deps.AuthMessage(err)
	case errors.Is(err, identity.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_email", e.deps.AuthMessage(err)
	case errors.Is(err, identity.ErrUserNotFound):
		return http.StatusUnauthorized, "user_not_found", e.deps.AuthMessage(err)
	case errors.Is(err, identity.ErrWrongPassword):
		return http.StatusUnauthorized, "wrong_password", e.deps.AuthMessage(err)

	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found", msgUserDataNotFound
	case errors.Is(err, catalog.ErrCareerNotFound):
		return http.StatusNotFound, "career_not_found", err.Error()
	case errors.Is(err, catalog.ErrCategoryNotFound):
		return http.StatusNotFound, "category_not_found", err.Error()
	case errors.Is(err, service.ErrSkillNotFound):
		return http.StatusNotFound, "skill_not_found", err.Error()
	case errors.Is(err, service.ErrInvalidSkill), errors.Is(err, service.ErrMissingDetails):
		return http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure", "Too many pending updates. Please retry shortly."

	case errors.Is(err, biometric.ErrDeviceDisconnected):
		return http.StatusConflict, "device_disconnected", "Connect your device first."
	case errors.Is(err, biometric.ErrSessionActive):
		return http.StatusConflict, "session_active", err.Error()
	case errors.Is(err, biometric.ErrNoActiveSession):
		return http.StatusConflict, "no_active_session", err.Error()

	case errors.Is(err, service.ErrNotStarted), errors.Is(err, biometric.ErrHubClosed):
		return http.StatusServiceUnavailable, "unavailable", msgGeneric
	}
	return http.StatusInternalServerError, "internal", msgGeneric
}
