package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/angelmondragon/crownleather-backend/pkg/auth"
	"github.com/angelmondragon/crownleather-backend/pkg/auth/session"
	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

var (
	// ErrInvalidCredential means the email exists but the password does not match.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnauthenticated means no active session backs the request.
	ErrUnauthenticated = errors.New("unauthenticated")
)

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type sessionManager interface {
	Open(ctx context.Context, identityID string) (string, error)
	Resolve(ctx context.Context, accessID string) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Gate registers identities and opens, resolves and ends their sessions.
type Gate interface {
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	Authenticate(ctx context.Context, req AuthenticateRequest) (*Session, error)
	AuthenticateAdmin(ctx context.Context, req AuthenticateRequest) (*Session, error)
	EndSession(ctx context.Context, accessID string) error
	CurrentSession(ctx context.Context, accessID string) (Identity, error)
}

// GateParams bundles the dependencies required to build a Gate.
type GateParams struct {
	Store     Store
	Hasher    passwordHasher
	Sessions  sessionManager
	JWTConfig config.JWTConfig
	Logger    *logger.Logger
	Now       func() time.Time
}

type gate struct {
	store    Store
	hasher   passwordHasher
	sessions sessionManager
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
	now      func() time.Time
}

func NewGate(params GateParams) (Gate, error) {
	if params.Store == nil {
		return nil, errors.New("identity store is required")
	}
	if params.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if params.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &gate{
		store:    params.Store,
		hasher:   params.Hasher,
		sessions: params.Sessions,
		jwtCfg:   params.JWTConfig,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (g *gate) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	exists, err := g.store.Exists(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check identity")
	}
	if exists {
		return nil, duplicateError()
	}

	hash, err := g.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	rec := Record{
		Identity: Identity{
			ID:        uuid.NewString(),
			Email:     email,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
			Role:      enums.RoleCustomer,
			CreatedAt: g.now().UTC(),
		},
		PasswordHash: hash,
	}
	if err := g.store.Put(ctx, rec); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, ErrDuplicateIdentity) {
			return nil, duplicateError()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store identity")
	}

	if g.logg != nil {
		g.logg.Info(g.logg.WithIdentityID(ctx, rec.Identity.ID), "identity registered")
	}
	return g.open(ctx, rec.Identity)
}

func (g *gate) Authenticate(ctx context.Context, req AuthenticateRequest) (*Session, error) {
	rec, err := g.verify(ctx, req)
	if err != nil {
		return nil, err
	}
	return g.open(ctx, rec.Identity)
}

// AuthenticateAdmin is Authenticate restricted to super admins. Customers get
// the same error as a wrong password.
func (g *gate) AuthenticateAdmin(ctx context.Context, req AuthenticateRequest) (*Session, error) {
	rec, err := g.verify(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalidCredentialError()
		}
		return nil, err
	}
	if rec.Identity.Role != enums.RoleSuperAdmin {
		return nil, invalidCredentialError()
	}
	return g.open(ctx, rec.Identity)
}

// EndSession revokes the session pointer. The identity record is untouched.
func (g *gate) EndSession(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrUnauthenticated, "authentication required")
	}
	if err := g.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (g *gate) CurrentSession(ctx context.Context, accessID string) (Identity, error) {
	identityID, err := g.sessions.Resolve(ctx, accessID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrUnauthenticated, "authentication required")
		}
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve session")
	}
	rec, err := g.store.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrUnauthenticated, "authentication required")
		}
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load identity")
	}
	return rec.Identity, nil
}

func (g *gate) verify(ctx context.Context, req AuthenticateRequest) (Record, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return Record{}, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	rec, err := g.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "account not found")
		}
		return Record{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load identity")
	}
	ok, err := g.hasher.Verify(req.Password, rec.PasswordHash)
	if err != nil {
		return Record{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return Record{}, invalidCredentialError()
	}
	return rec, nil
}

func (g *gate) open(ctx context.Context, id Identity) (*Session, error) {
	accessID, err := g.sessions.Open(ctx, id.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	now := g.now()
	token, err := pkgauth.MintAccessToken(g.jwtCfg, now, pkgauth.AccessTokenPayload{
		IdentityID: id.ID,
		Email:      id.Email,
		Role:       id.Role,
		JTI:        accessID,
	})
	if err != nil {
		_ = g.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Session{
		Identity:    id,
		AccessToken: token,
		ExpiresAt:   now.Add(g.jwtCfg.SessionTTL()).UTC(),
		accessID:    accessID,
	}, nil
}

func duplicateError() error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrDuplicateIdentity, "an account with this email already exists")
}

func invalidCredentialError() error {
	return pkgerrors.Wrap(pkgerrors.CodeInvalidCredential, ErrInvalidCredential, "invalid email or password")
}
