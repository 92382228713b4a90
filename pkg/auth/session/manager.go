package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fairshop/fairpos-backend/pkg/config"
	redisclient "github.com/fairshop/fairpos-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrNoDriveToken        = errors.New("no drive token for session")
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
	DriveTokenKey(sessionID string) string
}

// Manager handles refresh tokens and the Google access token tied to each session.
type Manager struct {
	store    sessionStore
	keyer    sessionKeyer
	ttl      time.Duration
	driveTTL time.Duration
	now      func() time.Time
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// DriveTokenSource resolves the Drive access token of a session.
type DriveTokenSource interface {
	DriveToken(ctx context.Context, sessionID string) (string, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig, google config.GoogleConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}

	return &Manager{
		store:    client,
		keyer:    client,
		ttl:      ttl,
		driveTTL: google.DriveTokenTTL,
		now:      time.Now,
	}, nil
}

// Generate creates a refresh token for the provided access ID and stores it in Redis.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	token, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), token, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate validates the refresh token, issues a new session and carries the Drive token across.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return "", "", ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return "", "", wrapNotFound(err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) != 1 {
		return "", "", ErrInvalidRefreshToken
	}

	newAccessID := NewAccessID()
	newToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(newAccessID), newToken, m.ttl); err != nil {
		return "", "", err
	}

	driveKey := m.keyer.DriveTokenKey(oldAccessID)
	driveToken, err := m.store.Get(ctx, driveKey)
	switch {
	case err == nil:
		if err := m.store.Set(ctx, m.keyer.DriveTokenKey(newAccessID), driveToken, m.driveTokenTTL(time.Time{})); err != nil {
			return "", "", err
		}
	case !errors.Is(err, redislib.Nil):
		return "", "", err
	}

	if err := m.store.Del(ctx, key, driveKey); err != nil {
		return "", "", err
	}
	return newAccessID, newToken, nil
}

// Revoke deletes the refresh mapping and Drive token tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID), m.keyer.DriveTokenKey(accessID))
}

// HasSession reports whether the provided access ID still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// StoreDriveToken saves the Google access token; expiresAt caps the TTL when known.
func (m *Manager) StoreDriveToken(ctx context.Context, sessionID, token string, expiresAt time.Time) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("drive token is required")
	}
	ttl := m.driveTokenTTL(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("drive token already expired")
	}
	return m.store.Set(ctx, m.keyer.DriveTokenKey(sessionID), token, ttl)
}

// DriveToken returns the stored token or ErrNoDriveToken.
func (m *Manager) DriveToken(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrNoDriveToken
	}
	token, err := m.store.Get(ctx, m.keyer.DriveTokenKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", ErrNoDriveToken
		}
		return "", err
	}
	return token, nil
}

// HasDriveToken reports whether the session can currently reach Drive.
func (m *Manager) HasDriveToken(ctx context.Context, sessionID string) (bool, error) {
	_, err := m.DriveToken(ctx, sessionID)
	if errors.Is(err, ErrNoDriveToken) {
		return false, nil
	}
	return err == nil, err
}

func (m *Manager) driveTokenTTL(expiresAt time.Time) time.Duration {
	ttl := m.driveTTL
	if ttl <= 0 {
		ttl = 55 * time.Minute
	}
	if !expiresAt.IsZero() {
		now := time.Now
		if m.now != nil {
			now = m.now
		}
		if until := expiresAt.Sub(now()); until < ttl {
			ttl = until
		}
	}
	return ttl
}

// NewAccessID produces a stable identifier used as the JWT jti/Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func generateRefreshToken() (string, error) {
	bytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) || errors.Is(err, ErrInvalidRefreshToken) {
		return ErrInvalidRefreshToken
	}
	return err
}
