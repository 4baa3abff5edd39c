// Package refreshtokens declares the contract for persisting refresh-token
// records and provides PostgreSQL and in-memory implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/server/models"
)

// Repository stores one record per issued refresh token. Each method is a
// single atomic operation.
type Repository interface {
	// Create inserts an unrevoked record. A reused tokenID yields
	// common.ErrDuplicateTokenID.
	Create(ctx context.Context, userID, tokenID string, expiresAt time.Time) error

	// FindActive returns the record for tokenID when it exists, is not revoked
	// and has not expired. Every other case yields common.ErrorNotFound.
	FindActive(ctx context.Context, tokenID string) (*models.RefreshToken, error)

	// Revoke marks the (tokenID, userID) record revoked. Nothing to revoke is
	// not an error.
	Revoke(ctx context.Context, tokenID, userID string) error
}

// Option configures a repository implementation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used to judge expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
