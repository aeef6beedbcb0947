package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/skillup/internal/adapters/identity"
	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/logger"
	"github.com/okian/skillup/pkg/metrics"
)

// Session is the result of a successful signup or login.
type Session struct {
	UserID    string    `json:"uid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Signup registers an account, creates its profile document and caches
// the personal details locally.
func (s *Service) Signup(ctx context.Context, in identity.Signup) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	uid, err := s.identity.Signup(ctx, in)
	if err != nil {
		metrics.RecordAuthAttempt("signup", "rejected")
		return Session{}, err
	}

	details := model.PersonalDetails{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	}
	doc := model.Profile{PersonalDetails: details, CreatedAt: s.now()}
	if err := s.profiles.Set(ctx, uid, doc, false); err != nil {
		metrics.RecordAuthAttempt("signup", "error")
		return Session{}, fmt.Errorf("create profile: %w", err)
	}
	if err := s.prefs.CachePersonalDetails(ctx, uid, details); err != nil {
		s.logger.Warn(ctx, "cache personal details failed", logger.String("uid", uid), logger.Error(err))
	}

	metrics.RecordAuthAttempt("signup", "ok")
	return s.session(uid)
}

// Login checks credentials and refreshes the cached personal details.
// A failed profile fetch is logged and does not fail the login.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if err := s.ready(); err != nil {
		return Session{}, err
	}
	uid, err := s.identity.Login(ctx, email, password)
	if err != nil {
		metrics.RecordAuthAttempt("login", "rejected")
		return Session{}, err
	}

	if doc, err := s.profiles.Get(ctx, uid); err != nil {
		s.logger.Warn(ctx, "fetch profile on login failed", logger.String("uid", uid), logger.Error(err))
	} else if err := s.prefs.CachePersonalDetails(ctx, uid, doc.PersonalDetails); err != nil {
		s.logger.Warn(ctx, "cache personal details failed", logger.String("uid", uid), logger.Error(err))
	}

	metrics.RecordAuthAttempt("login", "ok")
	return s.session(uid)
}

func (s *Service) session(uid string) (Session, error) {
	token, exp, err := s.identity.Issue(uid)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: uid, Token: token, ExpiresAt: exp}, nil
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(token string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.identity.Verify(token)
}

// AuthMessage returns the user-facing text for an identity error.
func (s *Service) AuthMessage(err error) string {
	if s.identity == nil {
		return ""
	}
	return s.identity.Message(err)
}
