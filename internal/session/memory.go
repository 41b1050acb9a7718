package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps sessions in an in-process TTL cache. Used when no
// Redis address is configured, and in tests. Sessions do not survive a
// restart.
type MemoryStore struct {
	cache *ttlcache.Cache[string, Session]
}

// NewMemoryStore creates an in-memory session store and starts its
// expiry loop. Touch-on-hit is disabled so a session expires at its
// fixed deadline no matter how often it is read, matching RedisStore.
func NewMemoryStore() *MemoryStore {
	c := ttlcache.New[string, Session](
		ttlcache.WithDisableTouchOnHit[string, Session](),
	)
	go c.Start()
	return &MemoryStore{cache: c}
}

// Set stores the session until its expiry.
func (m *MemoryStore) Set(_ context.Context, s Session) error {
	if s.ID == "" {
		return fmt.Errorf("session: missing id")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session: expiry must be in the future")
	}
	m.cache.Set(s.ID, s, ttl)
	return nil
}

// Get loads a session; unknown or expired ids return (nil, nil).
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	item := m.cache.Get(id)
	if item == nil {
		return nil, nil
	}
	s := item.Value()
	return &s, nil
}

// Destroy removes the session. Removing an unknown id is a no-op.
func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

// Stop halts the expiry loop.
func (m *MemoryStore) Stop() {
	m.cache.Stop()
}
