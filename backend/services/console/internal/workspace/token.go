package workspace

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired and forged workspace cookies.
var ErrInvalidToken = errors.New("workspace: invalid token")

// TokenService signs and verifies the console_session cookie. The subject is the workspace id.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenService returns configured token service.
func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	if expiresIn <= 0 {
		expiresIn = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}
}

// Issue signs a token for workspace id.
func (t *TokenService) Issue(id string) (string, error) {
	if id == "" {
		return "", errors.New("workspace: id is required")
	}
	now := t.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the workspace id carried by token.
func (t *TokenService) Verify(token string) (string, error) {
	id, _, err := t.Inspect(token)
	return id, err
}

// Inspect returns the workspace id and expiry carried by token.
func (t *TokenService) Inspect(token string) (string, time.Time, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", time.Time{}, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", time.Time{}, ErrInvalidToken
	}
	return claims.Subject, claims.ExpiresAt.Time, nil
}

// NeedsRefresh reports whether a token expiring at expiresAt is past half its lifetime.
func (t *TokenService) NeedsRefresh(expiresAt time.Time) bool {
	return expiresAt.Sub(t.now()) < t.expiresIn/2
}

// TTL is the cookie lifetime.
func (t *TokenService) TTL() time.Duration {
	return t.expiresIn
}
