package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/dbx"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX, opts ...Option) *PostgresRepository {
	o := buildOptions(opts)
	return &PostgresRepository{db: db, now: o.now}
}

func (r *PostgresRepository) Create(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_token (user_id, token_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, tokenID, expiresAt.UTC()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrDuplicateTokenID
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActive(ctx context.Context, tokenID string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_id, expires_at, created_at, revoked
		FROM refresh_token
		WHERE token_id = $1 AND revoked = false AND expires_at > $2
	`
	t := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenID, r.now().UTC()).
		Scan(&t.ID, &t.UserID, &t.TokenID, &t.ExpiresAt, &t.CreatedAt, &t.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, tokenID, userID string) error {
	query := `
		UPDATE refresh_token SET revoked = true
		WHERE token_id = $1 AND user_id = $2 AND revoked = false
	`
	if _, err := r.db.ExecContext(ctx, query, tokenID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
