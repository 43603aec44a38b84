package auth

import (
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	IdentityID string
	Email      string
	Role       enums.Role
	// JTI names the server side session; generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	IdentityID string     `json:"identity_id"`
	Email      string     `json:"email"`
	Role       enums.Role `json:"role"`
	jwt.RegisteredClaims
}
