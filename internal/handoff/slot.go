// Package handoff passes single-use values between screens of one sign-in session.
package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/fairshop/fairpos-backend/pkg/redis"
)

// Channel names.
const (
	ScannedBarcode  = "scanned_barcode"
	Receipt         = "receipt"
	EditTransaction = "edit_transaction"
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	HandoffKey(channel, sessionID string) string
}

// Slot holds at most one value of T per session. Put overwrites; Take consumes.
type Slot[T any] struct {
	store   store
	channel string
	ttl     time.Duration
}

// NewSlot binds a typed slot to a channel name.
func NewSlot[T any](s store, channel string, ttl time.Duration) *Slot[T] {
	return &Slot[T]{store: s, channel: channel, ttl: ttl}
}

// Put stores value for the session, replacing any unread value.
func (s *Slot[T]) Put(ctx context.Context, sessionID string, value T) error {
	if strings.TrimSpace(sessionID) == "" {
		return errors.New("session id is required")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("handoff %s: marshal: %w", s.channel, err)
	}
	if err := s.store.Set(ctx, s.store.HandoffKey(s.channel, sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("handoff %s: write: %w", s.channel, err)
	}
	return nil
}

// Take returns and deletes the session's value. found is false when nothing was waiting.
func (s *Slot[T]) Take(ctx context.Context, sessionID string) (value T, found bool, err error) {
	if strings.TrimSpace(sessionID) == "" {
		return value, false, nil
	}
	raw, err := s.store.GetDel(ctx, s.store.HandoffKey(s.channel, sessionID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("handoff %s: read: %w", s.channel, err)
	}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return value, false, fmt.Errorf("handoff %s: unmarshal: %w", s.channel, err)
	}
	return value, true, nil
}
