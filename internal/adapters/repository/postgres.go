package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/skillup/internal/domain/model"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	uid              TEXT PRIMARY KEY,
	personal_details JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS accounts (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);`

// Connect opens a pgx pool for dsn, verifies it and applies the schema.
func Connect(ctx context.Context, dsn string, opts ...Option) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %w", ErrUnavailable, err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return pool, nil
}

// PostgresProfiles is a ProfileStore over the users table.
type PostgresProfiles struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresProfiles wraps pool.
func NewPostgresProfiles(pool *pgxpool.Pool) *PostgresProfiles {
	return &PostgresProfiles{pool: pool, now: time.Now}
}

// Get implements ProfileStore.
func (s *PostgresProfiles) Get(ctx context.Context, uid string) (model.Profile, error) {
	defer observe("profile", "get", time.Now())
	var p model.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT personal_details, created_at FROM users WHERE uid = $1`, uid,
	).Scan(&p.PersonalDetails, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, fmt.Errorf("%w: user %s", ErrNotFound, uid)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("select user %s: %w", uid, err)
	}
	return p, nil
}

// Set implements ProfileStore. Merges read the row under FOR UPDATE so
// concurrent merges for one user apply in order.
func (s *PostgresProfiles) Set(ctx context.Context, uid string, p model.Profile, merge bool) error {
	defer observe("profile", "set", time.Now())
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existing *model.Profile
	if merge {
		var cur model.Profile
		err := tx.QueryRow(ctx,
			`SELECT personal_details, created_at FROM users WHERE uid = $1 FOR UPDATE`, uid,
		).Scan(&cur.PersonalDetails, &cur.CreatedAt)
		switch {
		case err == nil:
			existing = &cur
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("select user %s: %w", uid, err)
		}
	}

	out := apply(existing, p, merge, s.now())
	_, err = tx.Exec(ctx, `
		INSERT INTO users (uid, personal_details, created_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (uid) DO UPDATE
		SET personal_details = EXCLUDED.personal_details,
		    created_at = EXCLUDED.created_at,
		    updated_at = now()`,
		uid, out.PersonalDetails, out.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", uid, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Count implements ProfileStore.
func (s *PostgresProfiles) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// PostgresAccounts is an AccountStore over the accounts table.
type PostgresAccounts struct {
	pool *pgxpool.Pool
}

// NewPostgresAccounts wraps pool.
func NewPostgresAccounts(pool *pgxpool.Pool) *PostgresAccounts {
	return &PostgresAccounts{pool: pool}
}

// Create implements AccountStore.
func (s *PostgresAccounts) Create(ctx context.Context, a Account) error {
	defer observe("account", "create", time.Now())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID, strings.ToLower(a.Email), a.PasswordHash, a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// ByEmail implements AccountStore.
func (s *PostgresAccounts) ByEmail(ctx context.Context, email string) (Account, error) {
	defer observe("account", "by_email", time.Now())
	var a Account
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

// Count implements AccountStore.
func (s *PostgresAccounts) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
