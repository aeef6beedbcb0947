package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/skillup/internal/domain/model"
	"github.com/okian/skillup/pkg/metrics"
)

// MemoryProfiles is a process-local ProfileStore.
type MemoryProfiles struct {
	clock
	mu   sync.RWMutex
	docs map[string]model.Profile
}

// NewMemoryProfiles creates an empty profile store.
func NewMemoryProfiles(opts ...MemoryOption) *MemoryProfiles {
	return &MemoryProfiles{clock: newClock(opts), docs: make(map[string]model.Profile)}
}

// Get implements ProfileStore.
func (s *MemoryProfiles) Get(ctx context.Context, uid string) (model.Profile, error) {
	defer observe("profile", "get", time.Now())
	if err := ctx.Err(); err != nil {
		return model.Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.docs[uid]
	if !ok {
		return model.Profile{}, fmt.Errorf("%w: user %s", ErrNotFound, uid)
	}
	return p, nil
}

// Set implements ProfileStore.
func (s *MemoryProfiles) Set(ctx context.Context, uid string, p model.Profile, merge bool) error {
	defer observe("profile", "set", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing *model.Profile
	if cur, ok := s.docs[uid]; ok {
		existing = &cur
	}
	s.docs[uid] = apply(existing, p, merge, s.now())
	return nil
}

// Count implements ProfileStore.
func (s *MemoryProfiles) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// MemoryAccounts is a process-local AccountStore.
type MemoryAccounts struct {
	mu      sync.RWMutex
	byEmail map[string]Account
}

// NewMemoryAccounts creates an empty account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{byEmail: make(map[string]Account)}
}

// Create implements AccountStore.
func (s *MemoryAccounts) Create(ctx context.Context, a Account) error {
	defer observe("account", "create", time.Now())
	if err := ctx.Err(); err != nil {
		return err
	}
	key := strings.ToLower(a.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return ErrDuplicateEmail
	}
	s.byEmail[key] = a
	return nil
}

// ByEmail implements AccountStore.
func (s *MemoryAccounts) ByEmail(ctx context.Context, email string) (Account, error) {
	defer observe("account", "by_email", time.Now())
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// Count implements AccountStore.
func (s *MemoryAccounts) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byEmail), nil
}

func observe(store, op string, start time.Time) {
	metrics.RecordStoreLatency(store, op, float64(time.Since(start).Microseconds())/1000)
}
