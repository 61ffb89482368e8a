package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role distinguishes the two dashboard audiences.
type Role string

const (
	RoleParent  Role = "parent"
	RoleManager Role = "school_manager"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleParent, RoleManager:
		return true
	}
	return false
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	SessionID string
	Role      Role
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
