package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType separates the purposes a signed token can serve. A token minted
// for one purpose is never accepted for another.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeReset   TokenType = "reset"
)

func (t TokenType) valid() bool {
	switch t {
	case TokenTypeAccess, TokenTypeRefresh, TokenTypeReset:
		return true
	}
	return false
}

// ClaimSet is the data carried inside a signed token. TokenID is set only
// for refresh tokens and correlates the token with its stored record.
type ClaimSet struct {
	Subject   string
	Type      TokenType
	ExpiresAt time.Time
	TokenID   string
}

// wireClaims is the JSON payload: sub, exp, jti from the registered claims
// plus the purpose in "type".
type wireClaims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

func (c ClaimSet) toWire() wireClaims {
	return wireClaims{
		Type: c.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
			ID:        c.TokenID,
		},
	}
}

func (w *wireClaims) toClaimSet() *ClaimSet {
	cs := &ClaimSet{
		Subject: w.Subject,
		Type:    w.Type,
		TokenID: w.ID,
	}
	if w.ExpiresAt != nil {
		cs.ExpiresAt = w.ExpiresAt.Time.UTC()
	}
	return cs
}
