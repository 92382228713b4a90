package register

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fairshop/fairpos-backend/internal/cart"
	redisclient "github.com/fairshop/fairpos-backend/pkg/redis"
)

// State is everything the register remembers for one session between requests.
type State struct {
	Cart           *cart.Cart `json:"cart"`
	PaymentPending bool       `json:"payment_pending"`
}

func newState() *State {
	return &State{Cart: cart.New()}
}

// Clone returns a deep copy so a failed commit can leave the stored state untouched.
func (s *State) Clone() *State {
	return &State{Cart: s.Cart.Clone(), PaymentPending: s.PaymentPending}
}

type stateClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	RegisterKey(sessionID string) string
}

// StateStore keeps register state in Redis with a sliding TTL.
type StateStore struct {
	client stateClient
	ttl    time.Duration
}

func NewStateStore(client stateClient, ttl time.Duration) (*StateStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required for register state")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &StateStore{client: client, ttl: ttl}, nil
}

// Load returns the session's state, or an empty register when none is stored.
func (s *StateStore) Load(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.client.Get(ctx, s.client.RegisterKey(sessionID))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return newState(), nil
		}
		return nil, fmt.Errorf("read register state: %w", err)
	}
	st := newState()
	if err := json.Unmarshal([]byte(raw), st); err != nil {
		return nil, fmt.Errorf("decode register state: %w", err)
	}
	if st.Cart == nil {
		st.Cart = cart.New()
	}
	return st, nil
}

// Save writes the state and restarts its TTL.
func (s *StateStore) Save(ctx context.Context, sessionID string, st *State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode register state: %w", err)
	}
	if err := s.client.Set(ctx, s.client.RegisterKey(sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("write register state: %w", err)
	}
	return nil
}

// Move carries the register across a session rotation.
func (s *StateStore) Move(ctx context.Context, fromSession, toSession string) error {
	st, err := s.Load(ctx, fromSession)
	if err != nil {
		return err
	}
	if err := s.Save(ctx, toSession, st); err != nil {
		return err
	}
	return s.client.Del(ctx, s.client.RegisterKey(fromSession))
}

// Delete drops the session's register.
func (s *StateStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.client.RegisterKey(sessionID))
}
