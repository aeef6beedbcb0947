// Package repository persists user profile documents and login accounts.
package repository

import (
	"context"
	"time"

	"github.com/okian/skillup/internal/domain/model"
)

// ProfileStore is the "users" document collection keyed by user id.
type ProfileStore interface {
	// Get returns the user's document or ErrNotFound.
	Get(ctx context.Context, uid string) (model.Profile, error)
	// Set writes the document. With merge, non-empty incoming fields
	// overwrite stored ones and an existing createdAt is kept; without
	// merge the document is replaced. A zero createdAt is stamped with the
	// current time.
	Set(ctx context.Context, uid string, p model.Profile, merge bool) error
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}

// Account is a login identity.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AccountStore keeps login identities, unique by email.
type AccountStore interface {
	// Create inserts a new account or returns ErrDuplicateEmail.
	Create(ctx context.Context, a Account) error
	// ByEmail looks an account up or returns ErrNotFound.
	ByEmail(ctx context.Context, email string) (Account, error)
	// Count returns the number of accounts.
	Count(ctx context.Context) (int, error)
}

func apply(existing *model.Profile, in model.Profile, merge bool, now time.Time) model.Profile {
	out := in
	if merge && existing != nil {
		out = existing.Merge(in)
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	return out
}
