package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/angelmondragon/billminder-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var cacheSigningMethod = jwt.SigningMethodHS256

// ErrNoCachedSession signals an absent or unusable session cache; callers
// fall back to Anonymous.
var ErrNoCachedSession = errors.New("no cached session")

// SessionCache persists the current session identity across process restarts
// as a signed token holding only the user id. The token is never trusted as a
// user record: restoring always re-reads the authoritative state.
type SessionCache struct {
	cfg config.SessionConfig
}

// NewSessionCache validates the signing configuration and builds the cache.
func NewSessionCache(cfg config.SessionConfig) (*SessionCache, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.CachePath == "" {
		return nil, fmt.Errorf("session cache path is required")
	}
	return &SessionCache{cfg: cfg}, nil
}

// Write records the session user id.
func (c *SessionCache) Write(userID uuid.UUID) error {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    c.cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TTL())),
	}

	signed, err := jwt.NewWithClaims(cacheSigningMethod, claims).SignedString([]byte(c.cfg.Secret))
	if err != nil {
		return fmt.Errorf("signing session token: %w", err)
	}
	return os.WriteFile(c.cfg.CachePath, []byte(signed), 0o600)
}

// Read returns the cached session user id. A missing, tampered, or expired
// cache yields ErrNoCachedSession.
func (c *SessionCache) Read() (uuid.UUID, error) {
	raw, err := os.ReadFile(c.cfg.CachePath)
	if err != nil {
		return uuid.Nil, ErrNoCachedSession
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(
		string(raw),
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != cacheSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(c.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{cacheSigningMethod.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
	)
	if err != nil {
		return uuid.Nil, ErrNoCachedSession
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrNoCachedSession
	}
	return userID, nil
}

// Clear removes the cached session. Clearing an absent cache is a no-op.
func (c *SessionCache) Clear() error {
	err := os.Remove(c.cfg.CachePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
