package user

import (
	"context"
	"time"
)

// Principal is the verified identity behind an access token.
type Principal struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresAt   time.Time
}

// TokenVerifier resolves bearer tokens to principals.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (Principal, error)
	// Forget drops any cached verification of token.
	Forget(token string)
}
