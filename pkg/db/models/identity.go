package models

import (
	"time"

	"github.com/angelmondragon/crownleather-backend/pkg/enums"
)

// Identity is a registered storefront account together with its credential hash.
type Identity struct {
	ID           string     `gorm:"column:id;type:text;primaryKey"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex:identities_email_key"`
	PasswordHash string     `gorm:"column:password_hash;type:text;not null"`
	FirstName    string     `gorm:"column:first_name;type:text;not null"`
	LastName     string     `gorm:"column:last_name;type:text;not null"`
	Role         enums.Role `gorm:"column:role;type:text;not null;default:'customer'"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
}

func (Identity) TableName() string { return "identities" }
