package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Guard admits at most one checkout per identity at a time.
type Guard interface {
	// TryAcquire returns a release func, or ErrCheckoutInProgress when another
	// attempt already holds the identity.
	TryAcquire(ctx context.Context, identityID string) (release func(), err error)
}

// MemoryGuard serializes checkouts inside one process.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) TryAcquire(_ context.Context, identityID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[identityID]; busy {
		return nil, ErrCheckoutInProgress
	}
	g.held[identityID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, identityID)
			g.mu.Unlock()
		})
	}, nil
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	CheckoutLockKey(identityID string) string
}

// RedisGuard shares the in-flight lock across API nodes. The TTL bounds how
// long a crashed node can block its customer.
type RedisGuard struct {
	store lockStore
	ttl   time.Duration
}

func NewRedisGuard(store lockStore, ttl time.Duration) (*RedisGuard, error) {
	if store == nil {
		return nil, errors.New("redis lock store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	return &RedisGuard{store: store, ttl: ttl}, nil
}

func (g *RedisGuard) TryAcquire(ctx context.Context, identityID string) (func(), error) {
	key := g.store.CheckoutLockKey(identityID)
	token := uuid.NewString()
	ok, err := g.store.SetNX(ctx, key, token, g.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_, _ = g.store.DelIfValue(releaseCtx, key, token)
		})
	}, nil
}
