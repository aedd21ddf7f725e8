package cart

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used when Redis is unreachable.
// Carts do not survive a restart and are not shared between instances.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	carts map[string]memoryEntry
}

type memoryEntry struct {
	cart      Cart
	expiresAt time.Time
}

// NewMemoryStore returns an empty MemoryStore whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{ttl: ttl, now: time.Now, carts: map[string]memoryEntry{}}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[sessionID]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.carts, sessionID)
		return &Cart{Items: []Item{}}, nil
	}
	c := e.cart
	c.Items = append([]Item{}, e.cart.Items...)
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, c *Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c.UpdatedAt = now.UTC()
	stored := *c
	stored.Items = append([]Item{}, c.Items...)
	s.carts[sessionID] = memoryEntry{cart: stored, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
