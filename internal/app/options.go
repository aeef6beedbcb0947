package service

import (
	"time"

	"github.com/okian/skillup/internal/adapters/identity"
	"github.com/okian/skillup/internal/adapters/repository"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/catalog"
	"github.com/okian/skillup/internal/domain/prefs"
	"github.com/okian/skillup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWriterCount sets the number of profile writers.
func WithWriterCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.writerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the profile write queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProfileStore sets the profile document store.
func WithProfileStore(store repository.ProfileStore) Option {
	return func(s *Service) {
		if store != nil {
			s.profiles = store
		}
	}
}

// WithAccountStore sets the account store.
func WithAccountStore(store repository.AccountStore) Option {
	return func(s *Service) {
		if store != nil {
			s.accounts = store
		}
	}
}

// WithPrefsStore sets the per-user key-value store.
func WithPrefsStore(store prefs.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.kv = store
		}
	}
}

// WithCatalog sets the career and course catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithIdentityOptions configures signup, login and tokens.
func WithIdentityOptions(opts ...identity.Option) Option {
	return func(s *Service) {
		s.identityOpts = append(s.identityOpts, opts...)
	}
}

// WithBiometricOptions configures the biometric simulator.
func WithBiometricOptions(opts ...biometric.Option) Option {
	return func(s *Service) {
		s.biometricOpts = append(s.biometricOpts, opts...)
	}
}

// WithINRRate sets the USD to INR rate used for course prices.
func WithINRRate(rate float64) Option {
	return func(s *Service) {
		if rate > 0 {
			s.inrRate = rate
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
