// Package intake issues and verifies the signed links that invite a patient
// into a triage session.
package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long an intake link stays valid.
const DefaultTTL = 8 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid intake token")
	ErrExpired      = errors.New("intake link expired")
	ErrUsed         = errors.New("intake link already used")
	ErrNoSecret     = errors.New("intake secret not configured")
	ErrLinkNotFound = errors.New("intake link not found")
)

// Link statuses.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
)

// Link is the record kept for an issued token.
type Link struct {
	SessionID   string     `json:"session_id"`
	Token       string     `json:"token,omitempty"`
	PatientHint string     `json:"patient_hint,omitempty"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// LinkStore records issued links so they can be listed and marked used.
type LinkStore interface {
	SaveLink(ctx context.Context, link Link) error
	Link(ctx context.Context, sessionID string) (Link, error)
}

// Claims is the token payload.
type Claims struct {
	SessionID   string `json:"sid"`
	PatientHint string `json:"hint,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 intake tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer returns an Issuer signing with secret.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	i := &Issuer{secret: []byte(secret), ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// TTL returns the configured link lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for sessionID and returns the link describing it.
func (i *Issuer) Issue(sessionID, patientHint string) (Link, error) {
	if sessionID == "" {
		return Link{}, fmt.Errorf("%w: empty session id", ErrInvalidToken)
	}
	now := i.now().UTC()
	expires := now.Add(i.ttl)
	claims := Claims{
		SessionID:   sessionID,
		PatientHint: patientHint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Link{}, fmt.Errorf("failed to sign intake token: %w", err)
	}
	return Link{
		SessionID:   sessionID,
		Token:       signed,
		PatientHint: patientHint,
		Status:      StatusPending,
		ExpiresAt:   expires.Truncate(time.Second),
	}, nil
}

// Verify parses token and returns its claims.
// Expired tokens fail with ErrExpired; anything else malformed with ErrInvalidToken.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
