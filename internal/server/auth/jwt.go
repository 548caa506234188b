// Package auth mints and verifies the access/refresh JWT pair and hashes
// passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tells access tokens and refresh tokens apart. It is carried in the
// "typ" claim so one kind can never be presented as the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Identity is what a token asserts about its bearer.
type Identity struct {
	SubjectID string
	Email     string
}

// Claims is the JWT payload shared by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Type  Kind   `json:"typ"`
}

// Identity returns the subject and email asserted by the claims.
func (c *Claims) Identity() Identity {
	return Identity{SubjectID: c.Subject, Email: c.Email}
}

// Reason explains why verification failed. Callers are expected to treat
// every reason the same way; it exists for logs and metrics.
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonMalformed Reason = "malformed"
	ReasonSignature Reason = "signature"
	ReasonExpired   Reason = "expired"
	ReasonWrongKind Reason = "wrong_kind"
	ReasonClaims    Reason = "claims"
)

// Result is the outcome of Verify: exactly one of Authenticated or
// Unauthenticated is meaningful, selected by OK.
type Result struct {
	OK     bool
	Claims *Claims
	Reason Reason
}

func authenticated(c *Claims) Result { return Result{OK: true, Claims: c} }
func unauthenticated(r Reason) Result { return Result{Reason: r} }

// Signer mints and verifies HS256 tokens with a single server secret.
type Signer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewSigner returns a Signer. An empty secret is a configuration error.
func NewSigner(secret []byte, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	return &Signer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of s that reads time from now. Used by tests.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// TTL returns the lifetime of tokens of the given kind.
func (s *Signer) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return s.refreshTTL
	}
	return s.accessTTL
}

// Sign mints a token of the given kind for id. The returned claims carry the
// token id (jti) and expiry actually embedded in the token.
func (s *Signer) Sign(kind Kind, id Identity) (string, *Claims, error) {
	if kind != KindAccess && kind != KindRefresh {
		return "", nil, fmt.Errorf("unknown token kind %q", kind)
	}

	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL(kind))),
		},
		Email: id.Email,
		Type:  kind,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Verify checks signature, structure, expiry and kind. A token verified at
// exactly its expiry instant is rejected: validity requires now < exp.
func (s *Signer) Verify(kind Kind, tokenString string) Result {
	if tokenString == "" {
		return unauthenticated(ReasonMissing)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return unauthenticated(ReasonExpired)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return unauthenticated(ReasonSignature)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return unauthenticated(ReasonMalformed)
		default:
			return unauthenticated(ReasonClaims)
		}
	}

	if claims.Type != kind {
		return unauthenticated(ReasonWrongKind)
	}
	if claims.Subject == "" || claims.Email == "" || claims.ID == "" {
		return unauthenticated(ReasonClaims)
	}
	return authenticated(claims)
}
