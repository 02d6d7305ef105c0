// Package token issues and verifies the signed, self-contained bearer tokens
// used by both interactive sessions and machine clients. Tokens are HS256
// JWTs; access and refresh tokens are signed with independent secrets so a
// leaked token of one kind cannot stand in for the other. Nothing is stored
// server-side — the signature and the embedded expiry are the whole trust
// boundary.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/airops/auth-service/internal/model"
)

// Kind selects the signing secret and the lifetime table for a token.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Lifetimes per kind and remember flag. Machine-issued access tokens always
// use AccessTTL; the remembered variants exist only for the cookie session.
const (
	AccessTTL          = 15 * time.Minute
	AccessRememberTTL  = 7 * 24 * time.Hour
	RefreshTTL         = 24 * time.Hour
	RefreshRememberTTL = 30 * 24 * time.Hour
)

var (
	// ErrExpired marks a well-formed, correctly signed token whose expiry
	// has passed. Callers use it to decide between a silent refresh and a
	// hard re-login.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers every other verification failure: bad signature,
	// wrong signing method, malformed payload.
	ErrInvalid = errors.New("token invalid")
)

// Principal is the authenticated identity carried inside a token payload.
// ClientID is set only on tokens minted through the machine credential
// exchange. Immutable once minted.
type Principal struct {
	UserID   string
	Role     model.Role
	Email    string
	ClientID string
}

// Claims is the JWT payload layout shared by both token kinds.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// Pair bundles a freshly issued access/refresh token set together with the
// expiry of each, so handlers can mirror the lifetimes into cookie max-ages.
type Pair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// Manager signs and verifies tokens. Secrets are fixed at construction and
// never mutated afterwards; a Manager is safe for concurrent use.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewManager builds a Manager from the two kind-specific secrets. Empty
// secrets are a configuration error surfaced here so the process fails at
// startup rather than on the first request.
func NewManager(accessSecret, refreshSecret string) (*Manager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token: access and refresh secrets are required")
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

// TTL returns the lifetime for a token of the given kind under the remember
// flag.
func TTL(kind Kind, remember bool) time.Duration {
	if kind == Refresh {
		if remember {
			return RefreshRememberTTL
		}
		return RefreshTTL
	}
	if remember {
		return AccessRememberTTL
	}
	return AccessTTL
}

// Issue mints a signed token of the given kind for the principal. The
// returned time is the token's expiry instant.
func (m *Manager) Issue(p Principal, kind Kind, remember bool) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(TTL(kind, remember))
	claims := &Claims{
		UserID:   p.UserID,
		Role:     string(p.Role),
		Email:    p.Email,
		ClientID: p.ClientID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret(kind))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssuePair mints a matching access+refresh token set for an interactive
// session.
func (m *Manager) IssuePair(p Principal, remember bool) (Pair, error) {
	access, accessExp, err := m.Issue(p, Access, remember)
	if err != nil {
		return Pair{}, err
	}
	refresh, refreshExp, err := m.Issue(p, Refresh, remember)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

// Verify checks the signature and expiry of a token against the secret for
// the given kind and extracts its principal. Expired tokens fail with
// ErrExpired; everything else fails with ErrInvalid.
func (m *Manager) Verify(raw string, kind Kind) (Principal, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return m.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpired
		}
		return Principal{}, ErrInvalid
	}
	if !tok.Valid {
		return Principal{}, ErrInvalid
	}
	return Principal{
		UserID:   claims.UserID,
		Role:     model.Role(claims.Role),
		Email:    claims.Email,
		ClientID: claims.ClientID,
	}, nil
}

func (m *Manager) secret(kind Kind) []byte {
	if kind == Refresh {
		return m.refreshSecret
	}
	return m.accessSecret
}
