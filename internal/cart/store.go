package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redisclient "github.com/angelmondragon/crownleather-backend/pkg/redis"
)

// Store keeps one ledger per identity.
type Store interface {
	// Load returns the stored ledger, or an empty one when nothing is stored.
	Load(ctx context.Context, identityID string) (*Ledger, error)
	Save(ctx context.Context, identityID string, ledger *Ledger) error
	Delete(ctx context.Context, identityID string) error
}

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(identityID string) string
}

// RedisStore serializes ledgers as JSON under a per-identity key that expires after ttl of inactivity.
type RedisStore struct {
	kv  kv
	ttl time.Duration
}

func NewRedisStore(client kv, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{kv: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, identityID string) (*Ledger, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(identityID))
	if errors.Is(err, redisclient.Nil) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	ledger := NewLedger()
	if err := json.Unmarshal([]byte(raw), ledger); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return ledger, nil
}

// Save writes ledger, or deletes the key when the ledger is empty.
func (s *RedisStore) Save(ctx context.Context, identityID string, ledger *Ledger) error {
	if ledger == nil || ledger.IsEmpty() {
		return s.Delete(ctx, identityID)
	}
	payload, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.CartKey(identityID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, identityID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(identityID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store. Ledgers are copied on the way in and out.
type MemoryStore struct {
	mu      sync.Mutex
	ledgers map[string]*Ledger
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: map[string]*Ledger{}}
}

func (s *MemoryStore) Load(_ context.Context, identityID string) (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.ledgers[identityID]; ok {
		return l.Snapshot(), nil
	}
	return NewLedger(), nil
}

func (s *MemoryStore) Save(_ context.Context, identityID string, ledger *Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger == nil || ledger.IsEmpty() {
		delete(s.ledgers, identityID)
		return nil
	}
	s.ledgers[identityID] = ledger.Snapshot()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ledgers, identityID)
	return nil
}
