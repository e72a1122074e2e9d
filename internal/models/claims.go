package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the payload of access tokens issued by the identity provider.
// This service only verifies tokens, it never issues them.
type UserClaims struct {
	UserID      string `json:"uid"`
	DisplayName string `json:"name,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}
