package ports

import "github.com/midnightlabs/midnight/internal/core/domain"

// TokenClaims are the claims carried by an API session token.
type TokenClaims struct {
	UserID string
	Demo   bool
}

// Tokens issues and verifies API session tokens.
type Tokens interface {
	Issue(s domain.Session) (string, error)
	Verify(token string) (TokenClaims, error)
}
