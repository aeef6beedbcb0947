package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/skillup/internal/adapters/mq/queue"
	"github.com/okian/skillup/internal/adapters/repository"
	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/logger"
)

// Profile reads the user's document and refreshes the local cache.
// A missing document is reported as repository.ErrNotFound.
func (s *Service) Profile(ctx context.Context, uid string) (model.Profile, error) {
	if err := s.ready(); err != nil {
		return model.Profile{}, err
	}
	doc, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return model.Profile{}, err
	}
	s.cache(ctx, uid, doc.PersonalDetails)
	return doc, nil
}

// UpdateProfile applies a profile edit synchronously and returns the stored
// result. Present fields overwrite, empty strings included. Queued
// onboarding writes issued before the edit are superseded by it.
func (s *Service) UpdateProfile(ctx context.Context, uid string, patch model.DetailsPatch) (model.Profile, error) {
	if err := s.ready(); err != nil {
		return model.Profile{}, err
	}
	u := s.user(uid)
	u.mu.Lock()
	defer u.mu.Unlock()

	cur, err := s.profiles.Get(ctx, uid)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		cur = model.Profile{}
	case err != nil:
		return model.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	u.seq++
	u.fence = u.seq

	next := model.Profile{PersonalDetails: patch.Apply(cur.PersonalDetails), CreatedAt: cur.CreatedAt}
	if err := s.profiles.Set(ctx, uid, next, false); err != nil {
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	doc, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return model.Profile{}, fmt.Errorf("read updated profile: %w", err)
	}
	s.cache(ctx, uid, doc.PersonalDetails)
	return doc, nil
}

// SubmitPersonalDetails caches the onboarding form and queues a merge
// write. It returns before the write reaches the document store; a full
// queue yields ErrBackpressure.
func (s *Service) SubmitPersonalDetails(ctx context.Context, uid string, details model.PersonalDetails) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(details.FirstName) == "" || strings.TrimSpace(details.LastName) == "" {
		return ErrMissingDetails
	}
	u := s.user(uid)
	u.mu.Lock()
	defer u.mu.Unlock()

	cached, _, err := s.prefs.PersonalDetails(ctx, uid)
	if err != nil {
		return err
	}
	s.cache(ctx, uid, cached.Merge(details))

	u.seq++
	err = s.writes.Enqueue(ctx, model.ProfileWrite{UserID: uid, Details: details, Seq: u.seq, EnqueuedAt: s.now()})
	switch {
	case errors.Is(err, queue.ErrFull), errors.Is(err, queue.ErrClosed):
		return fmt.Errorf("%w: %v", ErrBackpressure, err)
	case err != nil:
		return err
	}
	return nil
}

func (s *Service) cache(ctx context.Context, uid string, d model.PersonalDetails) {
	if err := s.prefs.CachePersonalDetails(ctx, uid, d); err != nil {
		s.logger.Warn(ctx, "cache personal details failed", logger.String("uid", uid), logger.Error(err))
	}
}

// admit holds the user's lock for a queued write and reports whether the
// write is still current. A write issued before the latest profile edit is
// dropped. The caller must call release when ok is true.
func (s *Service) admit(w model.ProfileWrite) (release func(), ok bool) { //nolint:gocritic // hugeParam: matches the worker hook
	u := s.user(w.UserID)
	u.mu.Lock()
	if w.Seq != 0 && w.Seq <= u.fence {
		u.mu.Unlock()
		return nil, false
	}
	return u.mu.Unlock, true
}
