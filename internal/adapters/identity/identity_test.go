package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/skillup/internal/adapters/repository"
)

func newService(opts ...Option) *Service {
	base := []Option{WithBcryptCost(bcrypt.MinCost), WithSecret("test-secret")}
	return New(repository.NewMemoryAccounts(), append(base, opts...)...)
}

func form(email, pw, confirm string) Signup {
	return Signup{FirstName: "Asha", LastName: "Rao", Email: email, Password: pw, ConfirmPassword: confirm}
}

func TestSignup(t *testing.T) {
	Convey("Given an empty account store", t, func() {
		ctx := context.Background()
		s := newService()

		Convey("a valid form creates an account", func() {
			uid, err := s.Signup(ctx, form("asha@example.com", "secret1", "secret1"))
			So(err, ShouldBeNil)
			So(uid, ShouldNotBeEmpty)

			Convey("and the same email cannot register twice", func() {
				_, err := s.Signup(ctx, form("ASHA@example.com ", "secret1", "secret1"))
				So(err, ShouldEqual, ErrEmailInUse)
				So(s.Message(err), ShouldEqual, "An account with this email already exists.")
			})

			Convey("and login returns the same uid", func() {
				got, err := s.Login(ctx, "asha@example.com", "secret1")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, uid)
			})
		})

		Convey("mismatched passwords are rejected first", func() {
			_, err := s.Signup(ctx, form("bad", "abc", "abd"))
			So(err, ShouldEqual, ErrPasswordMismatch)
			So(s.Message(err), ShouldEqual, "Passwords do not match.")
		})

		Convey("short passwords are rejected", func() {
			_, err := s.Signup(ctx, form("asha@example.com", "abc", "abc"))
			So(err, ShouldEqual, ErrWeakPassword)
			So(s.Message(err), ShouldEqual, "Password must be at least 6 characters long.")
		})

		Convey("passwords bcrypt cannot hash are rejected", func() {
			long := strings.Repeat("x", MaxPasswordBytes+1)
			_, err := s.Signup(ctx, form("asha@example.com", long, long))
			So(err, ShouldEqual, ErrPasswordTooLong)
			So(s.Message(err), ShouldEqual, "Password must be at most 72 bytes long.")

			exact := strings.Repeat("x", MaxPasswordBytes)
			_, err = s.Signup(ctx, form("asha@example.com", exact, exact))
			So(err, ShouldBeNil)
		})

		Convey("malformed emails are rejected", func() {
			for _, email := range []string{"", "asha", "asha@", "Asha <asha@example.com>", "asha@localhost"} {
				_, err := s.Signup(ctx, form(email, "secret1", "secret1"))
				So(err, ShouldEqual, ErrInvalidEmail)
			}
		})
	})
}

func TestLogin(t *testing.T) {
	Convey("Given a registered account", t, func() {
		ctx := context.Background()
		s := newService()
		_, err := s.Signup(ctx, form("ravi@example.com", "hunter22", "hunter22"))
		So(err, ShouldBeNil)

		Convey("an unknown email reports user not found", func() {
			_, err := s.Login(ctx, "nobody@example.com", "hunter22")
			So(err, ShouldEqual, ErrUserNotFound)
			So(s.Message(err), ShouldEqual, "No user found with this email. Please sign up.")
		})

		Convey("a wrong password is rejected", func() {
			_, err := s.Login(ctx, "ravi@example.com", "hunter23")
			So(err, ShouldEqual, ErrWrongPassword)
			So(s.Message(err), ShouldEqual, "Incorrect password.")
		})

		Convey("an invalid email is rejected before lookup", func() {
			_, err := s.Login(ctx, "ravi", "hunter22")
			So(err, ShouldEqual, ErrInvalidEmail)
		})
	})
}

func TestTokens(t *testing.T) {
	Convey("Given a service with a fixed clock", t, func() {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		s := newService(WithClock(clock), WithTTL(time.Hour), WithIssuer("skillup-test"))

		token, exp, err := s.Issue("user-1")
		So(err, ShouldBeNil)
		So(exp, ShouldEqual, now.Add(time.Hour))

		Convey("the token verifies to its uid", func() {
			uid, err := s.Verify(token)
			So(err, ShouldBeNil)
			So(uid, ShouldEqual, "user-1")
		})

		Convey("an expired token is rejected", func() {
			now = now.Add(2 * time.Hour)
			_, err := s.Verify(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("a token signed with another key is rejected", func() {
			other := newService(WithClock(clock), WithIssuer("skillup-test"), WithSecret("other"))
			_, err := other.Verify(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("a token from another issuer is rejected", func() {
			other := newService(WithClock(clock))
			_, err := other.Verify(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("an unsigned token is rejected", func() {
			claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "skillup-test",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			}}
			raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			So(err, ShouldBeNil)
			_, err = s.Verify(raw)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("garbage is rejected", func() {
			_, err := s.Verify("not-a-token")
			So(err, ShouldEqual, ErrInvalidToken)
			So(s.Message(err), ShouldNotBeEmpty)
		})
	})
}
