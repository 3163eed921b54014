package domain

import "time"

// TokenType separates short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Token represents issued authentication token metadata.
type Token struct {
	Value     string
	Type      TokenType
	SubjectID string
	Role      Role
	ExpiresAt time.Time
}
