package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/crownleather-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

type itemLookup interface {
	Get(ctx context.Context, id int) (catalog.Item, error)
}

// Service applies ledger operations to the cart stored for an identity.
type Service interface {
	Get(ctx context.Context, identityID string) (*Ledger, error)
	AddItem(ctx context.Context, identityID string, itemID, qty int) (*Ledger, error)
	SetQuantity(ctx context.Context, identityID string, itemID, qty int) (*Ledger, error)
	RemoveItem(ctx context.Context, identityID string, itemID int) (*Ledger, error)
	Clear(ctx context.Context, identityID string) error
	Settle(ctx context.Context, identityID string, paid *Ledger) error
}

type service struct {
	store   Store
	catalog itemLookup
	logg    *logger.Logger
	locks   keyedMutex
}

func NewService(store Store, items itemLookup, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, errors.New("cart store is required")
	}
	if items == nil {
		return nil, errors.New("catalog lookup is required")
	}
	return &service{store: store, catalog: items, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, identityID string) (*Ledger, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	ledger, err := s.store.Load(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return ledger, nil
}

func (s *service) AddItem(ctx context.Context, identityID string, itemID, qty int) (*Ledger, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, identityID, func(l *Ledger) { l.AddItem(item, qty) })
}

func (s *service) SetQuantity(ctx context.Context, identityID string, itemID, qty int) (*Ledger, error) {
	return s.mutate(ctx, identityID, func(l *Ledger) { l.SetQuantity(itemID, qty) })
}

func (s *service) RemoveItem(ctx context.Context, identityID string, itemID int) (*Ledger, error) {
	return s.mutate(ctx, identityID, func(l *Ledger) { l.RemoveItem(itemID) })
}

func (s *service) Clear(ctx context.Context, identityID string) error {
	_, err := s.mutate(ctx, identityID, func(l *Ledger) { l.Clear() })
	return err
}

// Settle removes the quantities of a paid snapshot from the live cart.
func (s *service) Settle(ctx context.Context, identityID string, paid *Ledger) error {
	_, err := s.mutate(ctx, identityID, func(l *Ledger) { l.Deduct(paid) })
	return err
}

// mutate serializes load, apply and save per identity within this process.
func (s *service) mutate(ctx context.Context, identityID string, apply func(*Ledger)) (*Ledger, error) {
	if err := requireIdentity(identityID); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(identityID)
	defer unlock()

	ledger, err := s.store.Load(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	apply(ledger)
	if err := s.store.Save(ctx, identityID, ledger); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return ledger, nil
}

func requireIdentity(identityID string) error {
	if strings.TrimSpace(identityID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = map[string]*refMutex{}
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
