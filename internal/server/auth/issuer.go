package auth

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newTokenID is a test seam for refresh token id generation.
var newTokenID = func() string { return uuid.NewString() }

// IssuedRefresh is a freshly minted refresh token together with the values
// the caller must persist for it.
type IssuedRefresh struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Issuer builds access, refresh and password-reset claim sets and signs them.
type Issuer struct {
	codec *Codec
}

func NewIssuer(codec *Codec) *Issuer {
	return &Issuer{codec: codec}
}

// IssueAccess mints an access token for userID valid for ttl.
func (i *Issuer) IssueAccess(userID string, ttl time.Duration) (string, error) {
	return i.codec.Encode(ClaimSet{
		Subject:   userID,
		Type:      TokenTypeAccess,
		ExpiresAt: i.expiry(ttl),
	})
}

// IssueRefresh mints a refresh token for userID with a new random token id.
func (i *Issuer) IssueRefresh(userID string, ttl time.Duration) (*IssuedRefresh, error) {
	claims := ClaimSet{
		Subject:   userID,
		Type:      TokenTypeRefresh,
		ExpiresAt: i.expiry(ttl),
		TokenID:   newTokenID(),
	}

	token, err := i.codec.Encode(claims)
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}

	return &IssuedRefresh{Token: token, TokenID: claims.TokenID, ExpiresAt: claims.ExpiresAt}, nil
}

// IssueReset mints a password-reset token whose subject is the account email.
func (i *Issuer) IssueReset(email string, ttl time.Duration) (string, error) {
	return i.codec.Encode(ClaimSet{
		Subject:   email,
		Type:      TokenTypeReset,
		ExpiresAt: i.expiry(ttl),
	})
}

// expiry is truncated to whole seconds, the resolution of the exp claim, so
// what the caller stores matches what the token carries.
func (i *Issuer) expiry(ttl time.Duration) time.Time {
	return i.codec.Now().Add(ttl).Truncate(time.Second)
}
