package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

// EnsureAdmin creates the configured super admin when the email is not registered yet.
func EnsureAdmin(ctx context.Context, store Store, hasher passwordHasher, cfg config.AdminConfig, logg *logger.Logger) error {
	email := NormalizeEmail(cfg.Email)
	if email == "" || cfg.Password == "" {
		return errors.New("admin email and password are required")
	}
	exists, err := store.Exists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := hasher.Hash(cfg.Password)
	if err != nil {
		return err
	}
	err = store.Put(ctx, Record{
		Identity: Identity{
			ID:        uuid.NewString(),
			Email:     email,
			FirstName: cfg.FirstName,
			LastName:  cfg.LastName,
			Role:      enums.RoleSuperAdmin,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: hash,
	})
	if errors.Is(err, ErrDuplicateIdentity) {
		return nil
	}
	if err == nil && logg != nil {
		logg.Info(logg.WithField(ctx, "email", email), "admin identity seeded")
	}
	return err
}
