package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// ClientKey scopes a token to one client's terminals; operator tokens leave it empty.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	ClientKey string    `json:"client_key,omitempty"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
