package auth

import (
	"github.com/flextech/employees-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload carries everything a token needs to be minted.
type AccessTokenPayload struct {
	UserID uint
	Role   enums.UserRole
}

// AccessTokenClaims is the JWT claim set for employee access tokens.
type AccessTokenClaims struct {
	UserID uint           `json:"uid"`
	Role   enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}
