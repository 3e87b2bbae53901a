// Package identity resolves bearer credentials to user identities. The
// booking and payment flows treat verification as an opaque collaborator:
// any failure, whatever the underlying cause, surfaces as ErrVerify and is
// reported to callers as a server-side fault rather than attributed to them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/train-ticket-booking/internal/model"
)

// ErrVerify is the uniform failure for any identity verification problem:
// a malformed token, an expired token, an unknown subject, or an
// unreachable user store.
var ErrVerify = errors.New("identity verification failed")

// User is the resolved identity of a bearer credential.
type User struct {
	ID       uint64
	Username string
	Email    string
}

// Verifier resolves a raw bearer token to a user.
type Verifier interface {
	Verify(ctx context.Context, bearer string) (User, error)
}

// UserStore is the subset of the user repository the local verifier needs.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// LocalVerifier validates HS256 access tokens issued by this service and
// resolves the subject claim against the user store. It backs the
// verify-token collaborator when everything runs in one binary.
type LocalVerifier struct {
	secret string
	users  UserStore
}

// NewLocalVerifier returns a LocalVerifier using the given signing secret
// and user store.
func NewLocalVerifier(secret string, users UserStore) *LocalVerifier {
	return &LocalVerifier{secret: secret, users: users}
}

// Verify parses and validates the bearer token, then loads the subject
// user. Every failure path collapses into ErrVerify with the cause wrapped
// for logs.
func (v *LocalVerifier) Verify(ctx context.Context, bearer string) (User, error) {
	tok, err := jwt.Parse(bearer, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(v.secret), nil
	})
	if err != nil || !tok.Valid {
		return User{}, fmt.Errorf("%w: parse token: %v", ErrVerify, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, fmt.Errorf("%w: unexpected claims format", ErrVerify)
	}
	// The subject is a decimal string; parsing it as a string keeps ids
	// above 2^53 exact where a float64 round-trip would not.
	sub, ok := claims["sub"].(string)
	if !ok {
		return User{}, fmt.Errorf("%w: missing subject claim", ErrVerify)
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return User{}, fmt.Errorf("%w: malformed subject claim", ErrVerify)
	}
	u, err := v.users.GetByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("%w: load user: %v", ErrVerify, err)
	}
	return User{ID: u.ID, Username: u.Username, Email: u.Email}, nil
}
