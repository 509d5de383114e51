package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenPair is one access/refresh issuance. Both strings are opaque to
// clients; the refresh token is additionally tracked server-side.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is what a successful login returns.
type AuthResult struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	Tokens TokenPair `json:"tokens"`
}

// RefreshToken is the stored record of a currently-valid refresh token.
// ID carries the token's jti so rotation can be traced in logs.
type RefreshToken struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    uuid.UUID `json:"user_id" bson:"user_id"`
	Token     string    `json:"token" bson:"token"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
