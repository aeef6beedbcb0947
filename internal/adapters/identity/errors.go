package identity

import "errors"

// Sentinel errors. Message maps each to the text shown to users.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrWeakPassword     = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrEmailInUse       = errors.New("email already in use")
	ErrUserNotFound     = errors.New("user not found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrInvalidToken     = errors.New("invalid token")
)

// Message returns the user-facing text for an identity error, or "" for
// errors that are not identity failures.
func (s *Service) Message(err error) string {
	switch {
	case errors.Is(err, ErrEmailInUse):
		return "An account with this email already exists."
	case errors.Is(err, ErrWeakPassword):
		return "Password must be at least " + itoa(s.minPasswordLen) + " characters long."
	case errors.Is(err, ErrPasswordTooLong):
		return "Password must be at most " + itoa(MaxPasswordBytes) + " bytes long."
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, ErrInvalidEmail):
		return "Invalid email address."
	case errors.Is(err, ErrUserNotFound):
		return "No user found with this email. Please sign up."
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password."
	case errors.Is(err, ErrInvalidToken):
		return "Your session has expired. Please log in again."
	}
	return ""
}
