package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/angelmondragon/crownleather-backend/pkg/auth"
	"github.com/angelmondragon/crownleather-backend/pkg/auth/session"
	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/db/dbtest"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
)

type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "plain$" + pw, nil }

func (plainHasher) Verify(pw, encoded string) (bool, error) { return encoded == "plain$"+pw, nil }

type fakeSessions struct {
	mu   sync.Mutex
	next int
	m    map[string]string
}

func (f *fakeSessions) Open(_ context.Context, identityID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.m == nil {
		f.m = map[string]string{}
	}
	f.next++
	id := "access-" + string(rune('a'+f.next))
	f.m[id] = identityID
	return id, nil
}

func (f *fakeSessions) Resolve(_ context.Context, accessID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.m[accessID]
	if !ok {
		return "", session.ErrNoSession
	}
	return id, nil
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, accessID)
	return nil
}

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "crownleather", ExpirationMinutes: 60}

func newTestGate(t *testing.T, store Store) (Gate, *fakeSessions) {
	t.Helper()
	sessions := &fakeSessions{}
	g, err := NewGate(GateParams{
		Store:     store,
		Hasher:    plainHasher{},
		Sessions:  sessions,
		JWTConfig: testJWT,
		Now:       func() time.Time { return time.Now() },
	})
	require.NoError(t, err)
	return g, sessions
}

func register(t *testing.T, g Gate, email string) *Session {
	t.Helper()
	s, err := g.Register(context.Background(), RegisterRequest{
		Email: email, Password: "secret1", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	return s
}

func TestRegisterOpensSession(t *testing.T) {
	g, _ := newTestGate(t, NewMemoryStore())
	s := register(t, g, " Ada@Example.com ")

	assert.Equal(t, "ada@example.com", s.Identity.Email)
	assert.Equal(t, enums.RoleCustomer, s.Identity.Role)
	assert.NotEmpty(t, s.Identity.ID)

	claims, err := pkgauth.ParseAccessToken(testJWT, s.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, s.AccessID(), claims.ID)
	assert.Equal(t, s.Identity.ID, claims.IdentityID)

	current, err := g.CurrentSession(context.Background(), s.AccessID())
	require.NoError(t, err)
	assert.Equal(t, s.Identity, current)
}

func TestRegisterDuplicateKeepsFirstRecord(t *testing.T) {
	store := NewMemoryStore()
	g, _ := newTestGate(t, store)
	first := register(t, g, "ada@example.com")

	_, err := g.Register(context.Background(), RegisterRequest{
		Email: "ADA@example.com", Password: "other99", FirstName: "Imposter", LastName: "X",
	})
	assert.True(t, errors.Is(err, ErrDuplicateIdentity))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	rec, err := store.Get(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.Identity.ID, rec.Identity.ID)
	assert.Equal(t, "Ada", rec.Identity.FirstName)
	assert.Equal(t, "plain$secret1", rec.PasswordHash)
}

func TestAuthenticateErrors(t *testing.T) {
	g, _ := newTestGate(t, NewMemoryStore())
	register(t, g, "ada@example.com")
	ctx := context.Background()

	_, err := g.Authenticate(ctx, AuthenticateRequest{Email: "nobody@example.com", Password: "x"})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = g.Authenticate(ctx, AuthenticateRequest{Email: "ada@example.com", Password: "wrong"})
	assert.True(t, errors.Is(err, ErrInvalidCredential))
	assert.Equal(t, pkgerrors.CodeInvalidCredential, pkgerrors.CodeOf(err))

	s, err := g.Authenticate(ctx, AuthenticateRequest{Email: "ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", s.Identity.Email)
}

func TestEndSessionKeepsIdentity(t *testing.T) {
	store := NewMemoryStore()
	g, _ := newTestGate(t, store)
	s := register(t, g, "ada@example.com")
	ctx := context.Background()

	require.NoError(t, g.EndSession(ctx, s.AccessID()))
	_, err := g.CurrentSession(ctx, s.AccessID())
	assert.True(t, errors.Is(err, ErrUnauthenticated))
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	exists, err := store.Exists(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = g.Authenticate(ctx, AuthenticateRequest{Email: "ada@example.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestAuthenticateAdmin(t *testing.T) {
	store := NewMemoryStore()
	g, _ := newTestGate(t, store)
	ctx := context.Background()
	require.NoError(t, EnsureAdmin(ctx, store, plainHasher{}, config.AdminConfig{
		Email: "admin@crownleather.com", Password: "admin123", FirstName: "Admin", LastName: "User",
	}, nil))
	register(t, g, "ada@example.com")

	s, err := g.AuthenticateAdmin(ctx, AuthenticateRequest{Email: "admin@crownleather.com", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, enums.RoleSuperAdmin, s.Identity.Role)

	_, err = g.AuthenticateAdmin(ctx, AuthenticateRequest{Email: "ada@example.com", Password: "secret1"})
	assert.Equal(t, pkgerrors.CodeInvalidCredential, pkgerrors.CodeOf(err))

	_, err = g.AuthenticateAdmin(ctx, AuthenticateRequest{Email: "ghost@example.com", Password: "x"})
	assert.Equal(t, pkgerrors.CodeInvalidCredential, pkgerrors.CodeOf(err))
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	cfg := config.AdminConfig{Email: "admin@crownleather.com", Password: "admin123"}
	require.NoError(t, EnsureAdmin(context.Background(), store, plainHasher{}, cfg, nil))
	first, err := store.Get(context.Background(), cfg.Email)
	require.NoError(t, err)
	require.NoError(t, EnsureAdmin(context.Background(), store, plainHasher{}, cfg, nil))
	again, err := store.Get(context.Background(), cfg.Email)
	require.NoError(t, err)
	assert.Equal(t, first.Identity.ID, again.Identity.ID)
}

func TestGormStore(t *testing.T) {
	store := NewGormStore(dbtest.Open(t))
	ctx := context.Background()
	g, _ := newTestGate(t, store)

	s := register(t, g, "Grace@Example.com")
	rec, err := store.GetByID(ctx, s.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", rec.Identity.Email)

	err = store.Put(ctx, Record{Identity: Identity{ID: "other", Email: "grace@example.com", Role: enums.RoleCustomer, CreatedAt: time.Now()}, PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = store.Get(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
