package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/dbx"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/dmitrijs2005/courseauth/internal/server/password"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/repomanager"
)

// EnsureSuperuser creates an active superuser with email and pw unless an
// account with that email already exists. The lookup and the insert share
// one transaction; a nil db suits in-memory storage.
func EnsureSuperuser(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, hasher *password.Hasher, email, pw string) (bool, error) {
	if email == "" || pw == "" {
		return false, errors.New("superuser email and password are required")
	}

	created := false
	fn := func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.Users(tx)

		_, err := repo.GetByEmail(ctx, email)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		hash, err := hasher.Hash(pw)
		if err != nil {
			return err
		}
		if _, err := repo.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: hash,
			IsActive:     true,
			IsSuperuser:  true,
		}); err != nil {
			return err
		}
		created = true
		return nil
	}

	if err := dbx.InTx(ctx, db, fn); err != nil {
		return false, fmt.Errorf("ensure superuser: %w", err)
	}
	return created, nil
}

// CreateSuperuser prompts on the terminal for a new password and creates
// the superuser account for email. An existing account is left untouched.
func CreateSuperuser(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, hasher *password.Hasher, email string, w io.Writer) error {
	if email == "" {
		return errors.New("email is required")
	}

	fmt.Fprintf(w, "Creating superuser %s\n", email)
	pw, err := PromptNewPassword(w)
	if err != nil {
		return err
	}

	created, err := EnsureSuperuser(ctx, db, m, hasher, email, pw)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(w, "Superuser created.")
	} else {
		fmt.Fprintln(w, "An account with this email already exists, nothing changed.")
	}
	return nil
}
