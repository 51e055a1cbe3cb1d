package tokens

import (
	"context"
	"sync"
)

// Pair is an access/refresh token pair issued by the backend.
type Pair struct {
	Access  string `toml:"access" json:"access"`
	Refresh string `toml:"refresh" json:"refresh"`
}

// IsZero reports whether neither token is set.
func (p Pair) IsZero() bool {
	return p.Access == "" && p.Refresh == ""
}

// Store persists the current token pair. Implementations must be safe for
// concurrent use. A store with no tokens returns a zero Pair and no error.
type Store interface {
	Tokens(ctx context.Context) (Pair, error)
	SetTokens(ctx context.Context, p Pair) error
	Clear(ctx context.Context) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

// NewMemoryStore returns a store seeded with p.
func NewMemoryStore(p Pair) *MemoryStore {
	return &MemoryStore{pair: p}
}

func (m *MemoryStore) Tokens(context.Context) (Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pair, nil
}

func (m *MemoryStore) SetTokens(_ context.Context, p Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = p
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = Pair{}
	return nil
}
