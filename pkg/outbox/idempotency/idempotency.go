package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// cooldownStore is the slice of pkg/redis.Client the manager needs.
type cooldownStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	AlertKey(kind, id string) string
}

// Manager remembers which subjects were already alerted on. Marks live under
// `pos:alert:<scope>:<id>` for the configured TTL and hold the UTC time they
// were set, so an operator can see when a suppressed alert last fired.
type Manager struct {
	store cooldownStore
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store cooldownStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("cooldown store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// CheckAndMark reports whether (scope, id) is still cooling down. When it is
// not, the mark is set and false is returned.
func (m *Manager) CheckAndMark(ctx context.Context, scope string, id uuid.UUID) (bool, error) {
	key, err := m.key(scope, id)
	if err != nil {
		return false, err
	}
	set, err := m.store.SetNX(ctx, key, m.now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Clear ends the cooldown early, e.g. once stock is back above threshold.
func (m *Manager) Clear(ctx context.Context, scope string, id uuid.UUID) error {
	key, err := m.key(scope, id)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(scope string, id uuid.UUID) (string, error) {
	scope = strings.TrimSpace(scope)
	switch {
	case scope == "":
		return "", errors.New("scope is required")
	case id == uuid.Nil:
		return "", errors.New("id is required")
	}
	return m.store.AlertKey(scope, id.String()), nil
}
