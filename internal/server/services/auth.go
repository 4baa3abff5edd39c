// Package services contains server-side business logic. This file implements
// AuthService: password login, access-token refresh, refresh-token
// revocation and the password-reset flow.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/logging"
	"github.com/dmitrijs2005/courseauth/internal/server/auth"
	"github.com/dmitrijs2005/courseauth/internal/server/config"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/dmitrijs2005/courseauth/internal/server/notify"
	"github.com/dmitrijs2005/courseauth/internal/server/password"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/courseauth/internal/server/repositories/users"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthDeps are the collaborators AuthService signs, hashes and notifies with.
type AuthDeps struct {
	Codec    *auth.Codec
	Hasher   *password.Hasher
	Renderer *notify.Renderer
	Notifier notify.Notifier
	Logger   logging.Logger
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	issuer      *auth.Issuer
	hasher      *password.Hasher
	renderer    *notify.Renderer
	notifier    notify.Notifier
	logger      logging.Logger

	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	resetTokenValidityDuration   time.Duration
}

// NewAuthService wires the service. db may be nil when m does not need a
// database handle.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, deps AuthDeps) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		codec:                        deps.Codec,
		issuer:                       auth.NewIssuer(deps.Codec),
		hasher:                       deps.Hasher,
		renderer:                     deps.Renderer,
		notifier:                     deps.Notifier,
		logger:                       logger.With("module", "auth"),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		resetTokenValidityDuration:   cfg.ResetTokenValidityDuration,
	}
}

func (s *AuthService) users() users.Repository { return s.repomanager.Users(s.db) }

func (s *AuthService) refreshTokens() refreshtokens.Repository {
	return s.repomanager.RefreshTokens(s.db)
}

// Login checks email and password and opens a new session. Unknown email and
// wrong password are indistinguishable to the caller. The password is checked
// before the active flag, so an inactive account is only reported to a caller
// who knows its password.
func (s *AuthService) Login(ctx context.Context, email, pw string) (*TokenPair, error) {
	user, err := s.users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Waste(pw)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(pw, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, common.ErrInactiveAccount
	}

	return s.openSession(ctx, user.ID)
}

// openSession mints an access/refresh pair and stores the refresh record.
// A token id collision is retried once with a new id.
func (s *AuthService) openSession(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.issuer.IssueAccess(userID, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	repo := s.refreshTokens()
	for attempt := 0; attempt < 2; attempt++ {
		refresh, err := s.issuer.IssueRefresh(userID, s.refreshTokenValidityDuration)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
		}

		err = repo.Create(ctx, userID, refresh.TokenID, refresh.ExpiresAt)
		if err == nil {
			return &TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
		}
		if !errors.Is(err, common.ErrDuplicateTokenID) {
			return nil, fmt.Errorf("%w: error storing refresh token: %w", common.ErrorInternal, err)
		}
		s.logger.Warn(ctx, "refresh token id collision", "user_id", userID, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("%w: refresh token id collided twice", common.ErrorInternal)
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	// DecodeAs guarantees a refresh claim set carries a jti.
	claims, err := s.codec.DecodeAs(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	record, err := s.refreshTokens().FindActive(ctx, claims.TokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenNotFoundOrRevoked
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if record.UserID != claims.Subject {
		s.logger.Warn(ctx, "refresh token subject does not match record", "token_id", claims.TokenID)
		return nil, common.ErrTokenNotFoundOrRevoked
	}

	access, err := s.issuer.IssueAccess(claims.Subject, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// Revoke ends the session identified by refreshToken when it belongs to
// actingUserID. Revoking an unknown or foreign token succeeds silently.
func (s *AuthService) Revoke(ctx context.Context, refreshToken, actingUserID string) error {
	claims, err := s.codec.DecodeAs(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return err
	}

	if err := s.refreshTokens().Revoke(ctx, claims.TokenID, actingUserID); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

// RequestPasswordReset sends a recovery email when the account exists.
// Nothing is reported back so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	user, err := s.users().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "password recovery lookup failed", "error", err)
		}
		return
	}

	msg, err := s.resetMessage(user.Email)
	if err != nil {
		s.logger.Error(ctx, "password recovery render failed", "error", err)
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "password recovery delivery failed", "error", err)
		return
	}
	s.logger.Info(ctx, "password recovery sent", "user_id", user.ID)
}

// ResetPassword sets a new password for the account named by resetToken.
// Existing sessions stay valid.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.codec.DecodeAs(resetToken, auth.TokenTypeReset)
	if err != nil {
		return err
	}

	repo := s.users()
	user, err := repo.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrUnknownAccount
		}
		return err
	}
	if !user.IsActive {
		return common.ErrInactiveAccount
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	if err := repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer access token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.codec.DecodeAs(accessToken, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	user, err := s.users().GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownAccount
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrInactiveAccount
	}
	return user, nil
}

// RenderPasswordReset renders the recovery email for email without sending
// it. Used by the superuser preview endpoint.
func (s *AuthService) RenderPasswordReset(ctx context.Context, email string) (*notify.Message, error) {
	user, err := s.users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownAccount
		}
		return nil, err
	}
	return s.resetMessage(user.Email)
}

func (s *AuthService) resetMessage(email string) (*notify.Message, error) {
	token, err := s.issuer.IssueReset(email, s.resetTokenValidityDuration)
	if err != nil {
		return nil, err
	}
	return s.renderer.PasswordReset(email, token)
}
