// Package service composes the stores, the catalog and the domain logic
// into the operations exposed by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/okian/skillup/internal/adapters/identity"
	"github.com/okian/skillup/internal/adapters/kv"
	"github.com/okian/skillup/internal/adapters/mq/queue"
	"github.com/okian/skillup/internal/adapters/mq/worker"
	"github.com/okian/skillup/internal/adapters/repository"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/catalog"
	"github.com/okian/skillup/internal/domain/prefs"
	"github.com/okian/skillup/pkg/logger"
	"github.com/okian/skillup/pkg/metrics"
)

const (
	defaultWriterCount = 4
	defaultQueueSize   = 1024
	defaultINRRate     = 83
)

// Service implements the API dependencies for SkillUp.
type Service struct {
	mu sync.RWMutex

	// Backends
	profiles repository.ProfileStore
	accounts repository.AccountStore
	kv       prefs.Store
	catalog  *catalog.Catalog

	// Components built on Start
	prefs    *prefs.Prefs
	identity *identity.Service
	writes   *queue.InMemoryQueue
	writers  *worker.Pool
	hub      *biometric.Hub
	prices   catalog.Localizer

	// Configuration
	writerCount   int
	queueSize     int
	inrRate       float64
	identityOpts  []identity.Option
	biometricOpts []biometric.Option
	now           func() time.Time

	// Per-user serialization of read-modify-write sequences.
	locks sync.Map

	started bool
	logger  logger.Logger
}

// New constructs a Service. Backends not supplied through options default
// to the in-memory implementations on Start.
func New(opts ...Option) *Service {
	s := &Service{
		writerCount: defaultWriterCount,
		queueSize:   defaultQueueSize,
		inrRate:     defaultINRRate,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and launches the profile writers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	s.logger.Info(ctx, "starting skillup service...")

	if s.catalog == nil {
		c, err := catalog.Default()
		if err != nil {
			return err
		}
		s.catalog = c
	}
	if s.profiles == nil {
		s.profiles = repository.NewMemoryProfiles()
		s.logger.Info(ctx, "using in-memory profile store")
	}
	if s.accounts == nil {
		s.accounts = repository.NewMemoryAccounts()
		s.logger.Info(ctx, "using in-memory account store")
	}
	if s.kv == nil {
		s.kv = kv.NewMemory()
		s.logger.Info(ctx, "using in-memory prefs store")
	}

	s.prefs = prefs.New(s.kv, s.logger.Named("prefs"))
	s.identity = identity.New(s.accounts, append([]identity.Option{identity.WithClock(s.now)}, s.identityOpts...)...)
	s.prices = catalog.NewLocalizer(s.inrRate)
	s.hub = biometric.NewHub(append([]biometric.Option{biometric.WithLogger(s.logger.Named("biometric"))}, s.biometricOpts...)...)

	s.writes = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.writers = worker.NewPool(s.writerCount, s.writes, s.profiles,
		worker.WithLogger(s.logger.Named("writer")),
		worker.WithAdmission(s.admit),
	)
	s.writers.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "skillup service started",
		logger.Int("writers", s.writerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("careers", len(s.catalog.Careers())),
		logger.Int("courses", len(s.catalog.Courses())),
	)
	return nil
}

// Stop drains pending profile writes, stops biometric sessions and closes
// the backends that hold resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping skillup service...")

	var errs []error
	if err := s.writers.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.hub.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	for _, b := range []any{s.kv, s.profiles, s.accounts} {
		if closer, ok := b.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	s.started = false
	s.logger.Info(ctx, "skillup service stopped")
	return errors.Join(errs...)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// userState serializes state changes for one user and orders that user's
// profile writes.
type userState struct {
	mu sync.Mutex
	// seq is the last sequence number handed out.
	seq uint64
	// fence is the sequence of the latest synchronous profile edit.
	fence uint64
}

func (s *Service) user(uid string) *userState {
	u, _ := s.locks.LoadOrStore(uid, &userState{})
	return u.(*userState)
}

// lock serializes state changes for one user and returns the unlock func.
func (s *Service) lock(uid string) func() {
	u := s.user(uid)
	u.mu.Lock()
	return u.mu.Unlock
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"writerCount": s.writerCount,
		"queueSize":   s.queueSize,
	}
	if !s.started {
		return stats
	}

	stats["queueLength"] = s.writes.Len()
	stats["writers"] = s.writers.Stats()
	stats["biometric"] = s.hub.Stats()
	stats["careers"] = len(s.catalog.Careers())
	stats["courses"] = len(s.catalog.Courses())
	if n, err := s.profiles.Count(ctx); err == nil {
		stats["profiles"] = n
	}
	if n, err := s.accounts.Count(ctx); err == nil {
		stats["accounts"] = n
	}

	metrics.UpdateQueueSize(s.writes.Len())
	return stats
}
