package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT. JTI ties
// the access token to its redis-backed refresh session.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username,omitempty"`
	jwt.RegisteredClaims
}
