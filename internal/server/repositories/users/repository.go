package users

import (
	"context"

	"github.com/dmitrijs2005/courseauth/internal/server/models"
)

// Repository is the credential lookup the authentication core consumes.
// Lookups that find nothing return common.ErrorNotFound.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Create(ctx context.Context, user *models.User) (*models.User, error)
}
