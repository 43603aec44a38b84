package identity

import (
	"strings"
	"time"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
)

// Identity is a registered account. It never changes after creation.
type Identity struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Record is an Identity together with its stored credential.
type Record struct {
	Identity     Identity
	PasswordHash string
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
}

type AuthenticateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is an opened session and the bearer token that names it.
type Session struct {
	Identity    Identity  `json:"user"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	accessID    string
}

// AccessID is the server side session id carried as the token jti.
func (s Session) AccessID() string {
	return s.accessID
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fromModel(m models.Identity) Record {
	return Record{
		Identity: Identity{
			ID:        m.ID,
			Email:     m.Email,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Role:      m.Role,
			CreatedAt: m.CreatedAt,
		},
		PasswordHash: m.PasswordHash,
	}
}

func toModel(r Record) models.Identity {
	return models.Identity{
		ID:           r.Identity.ID,
		Email:        r.Identity.Email,
		PasswordHash: r.PasswordHash,
		FirstName:    r.Identity.FirstName,
		LastName:     r.Identity.LastName,
		Role:         r.Identity.Role,
		CreatedAt:    r.Identity.CreatedAt,
	}
}
