// Package identity registers accounts, checks passwords and issues the
// bearer tokens that authenticate API calls.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/skillup/internal/adapters/repository"
)

// Claims carried by a bearer token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Signup is the registration form.
type Signup struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Service implements signup, login and token handling.
type Service struct {
	accounts       repository.AccountStore
	secret         []byte
	issuer         string
	ttl            time.Duration
	cost           int
	minPasswordLen int
	now            func() time.Time
}

// New creates a Service over accounts.
func New(accounts repository.AccountStore, opts ...Option) *Service {
	s := &Service{
		accounts:       accounts,
		secret:         []byte("change-me"),
		issuer:         "skillup",
		ttl:            24 * time.Hour,
		cost:           bcrypt.DefaultCost,
		minPasswordLen: 6,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Signup validates the form, stores a new account and returns its id.
// Checks run in form order: password match, length, email syntax, then
// uniqueness.
func (s *Service) Signup(ctx context.Context, in Signup) (string, error) {
	if in.Password != in.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if len(in.Password) < s.minPasswordLen {
		return "", ErrWeakPassword
	}
	if len(in.Password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	acc := repository.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", ErrEmailInUse
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return acc.ID, nil
}

// Login checks credentials and returns the account id.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	acc, err := s.accounts.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", ErrWrongPassword
	}
	return acc.ID, nil
}

// Issue signs an HS256 token for uid.
func (s *Service) Issue(uid string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		UserID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// Verify parses a token and returns its user id.
func (s *Service) Verify(token string) (string, error) {
	claims := new(Claims)
	parser := jwt.NewParser(
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
