package identity

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/db"
	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
)

var (
	// ErrNotFound means no identity matches the lookup.
	ErrNotFound = errors.New("identity not found")
	// ErrDuplicateIdentity means the email is already registered.
	ErrDuplicateIdentity = errors.New("identity already exists")
)

const emailConstraint = "identities_email_key"

// Store persists identity records keyed by normalized email.
type Store interface {
	Get(ctx context.Context, email string) (Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
	Exists(ctx context.Context, email string) (bool, error)
	// Put inserts a new record. It never overwrites; an existing email yields ErrDuplicateIdentity.
	Put(ctx context.Context, record Record) error
}

// GormStore is the database backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) Get(ctx context.Context, email string) (Record, error) {
	return s.first(ctx, "email = ?", NormalizeEmail(email))
}

func (s *GormStore) GetByID(ctx context.Context, id string) (Record, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) first(ctx context.Context, query string, arg any) (Record, error) {
	var row models.Identity
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return fromModel(row), nil
}

func (s *GormStore) Exists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("email = ?", NormalizeEmail(email)).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) Put(ctx context.Context, record Record) error {
	row := toModel(record)
	row.Email = NormalizeEmail(row.Email)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

// MemoryStore is a map backed Store for tests and single process demos.
type MemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]Record
	byID    map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byEmail: map[string]Record{}, byID: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, email string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	email, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return s.Get(ctx, email)
}

func (s *MemoryStore) Exists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[NormalizeEmail(email)]
	return ok, nil
}

func (s *MemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := NormalizeEmail(record.Identity.Email)
	if _, ok := s.byEmail[email]; ok {
		return ErrDuplicateIdentity
	}
	record.Identity.Email = email
	s.byEmail[email] = record
	s.byID[record.Identity.ID] = email
	return nil
}
