// Package auth issues and verifies the signed session tokens handed to the
// browser after Google sign-in.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	issuer            = "netfusion"
)

var (
	ErrInvalidSession = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")
	ErrWeakSecret     = errors.New("session secret must be at least 16 bytes")
)

// GoogleTokens are the OAuth credentials carried inside a session
type GoogleTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Session is the authenticated user behind a request
type Session struct {
	UserID string       `json:"userId"`
	Email  string       `json:"email"`
	Name   string       `json:"name"`
	Google GoogleTokens `json:"google"`
}

// sessionClaims carries the Google credentials sealed, since the token
// itself is readable by the browser
type sessionClaims struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Google string `json:"gt,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens
type Issuer struct {
	secret []byte
	sealer *sealer
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if len(secret) < 16 {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	sl, err := newSealer([]byte(secret))
	if err != nil {
		return nil, err
	}
	return &Issuer{secret: []byte(secret), sealer: sl, ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs s and returns the compact token
func (i *Issuer) Issue(s Session) (string, error) {
	google, err := i.sealGoogle(s.Google)
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := sessionClaims{
		Email:  s.Email,
		Name:   s.Name,
		Google: google,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its session
func (i *Issuer) Verify(token string) (*Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	google, err := i.openGoogle(claims.Google)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	return &Session{
		UserID: claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Google: google,
	}, nil
}

func (i *Issuer) sealGoogle(g GoogleTokens) (string, error) {
	if g == (GoogleTokens{}) {
		return "", nil
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("encode google tokens: %w", err)
	}
	return i.sealer.Seal(raw)
}

func (i *Issuer) openGoogle(sealed string) (GoogleTokens, error) {
	var g GoogleTokens
	if sealed == "" {
		return g, nil
	}
	raw, err := i.sealer.Open(sealed)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, fmt.Errorf("decode google tokens: %w", err)
	}
	return g, nil
}
