// Package httpapi exposes the authentication flows over HTTP with gin.
// Error bodies have the shape {"detail": "..."}.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/logging"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/dmitrijs2005/courseauth/internal/server/notify"
	"github.com/dmitrijs2005/courseauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the part of services.AuthService the handlers call.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Revoke(ctx context.Context, refreshToken, actingUserID string) error
	RequestPasswordReset(ctx context.Context, email string)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	RenderPasswordReset(ctx context.Context, email string) (*notify.Message, error)
}

type Handler struct {
	auth   AuthService
	logger logging.Logger
}

func NewHandler(auth AuthService, logger logging.Logger) *Handler {
	return &Handler{auth: auth, logger: logger.With("module", "http")}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userPublic struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	DateJoined  time.Time `json:"date_joined"`
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken, TokenType: common.BearerTokenType}
}

func newUserPublic(u *models.User) userPublic {
	v := userPublic{
		ID:          u.ID,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		DateJoined:  u.DateJoined,
	}
	if u.FullName != "" {
		v.FullName = &u.FullName
	}
	return v
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (h *Handler) internal(c *gin.Context, err error) {
	h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	detail(c, http.StatusInternalServerError, "Internal server error")
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type loginJSON struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login accepts the OAuth2 password form (username, password) or a JSON body
// (email, password).
func (h *Handler) Login(c *gin.Context) {
	var email, pw string
	if c.ContentType() == gin.MIMEJSON {
		var req loginJSON
		if err := c.ShouldBindJSON(&req); err != nil {
			detail(c, http.StatusUnprocessableEntity, "email and password are required")
			return
		}
		email, pw = req.Email, req.Password
	} else {
		var req loginForm
		if err := c.ShouldBind(&req); err != nil {
			detail(c, http.StatusUnprocessableEntity, "username and password are required")
			return
		}
		email, pw = req.Username, req.Password
	}

	pair, err := h.auth.Login(c.Request.Context(), email, pw)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newTokenResponse(pair))
	case errors.Is(err, common.ErrInvalidCredentials):
		detail(c, http.StatusBadRequest, "Incorrect email or password")
	case errors.Is(err, common.ErrInactiveAccount):
		detail(c, http.StatusBadRequest, "Inactive user")
	default:
		h.internal(c, err)
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" binding:"required"`
}

// bindRefreshToken reads refresh_token from a JSON body, a form or the query.
func bindRefreshToken(c *gin.Context) (string, bool) {
	var req refreshRequest
	var err error
	if c.ContentType() == gin.MIMEJSON {
		err = c.ShouldBindJSON(&req)
	} else {
		err = c.ShouldBind(&req)
	}
	if err != nil {
		detail(c, http.StatusUnprocessableEntity, "refresh_token is required")
		return "", false
	}
	return req.RefreshToken, true
}

func (h *Handler) Refresh(c *gin.Context) {
	token, ok := bindRefreshToken(c)
	if !ok {
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), token)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newTokenResponse(pair))
	case errors.Is(err, common.ErrTokenTypeMismatch):
		detail(c, http.StatusUnauthorized, "Invalid token type")
	case errors.Is(err, common.ErrTokenNotFoundOrRevoked):
		detail(c, http.StatusUnauthorized, "Refresh token not found or revoked")
	case errors.Is(err, common.ErrInvalidToken):
		detail(c, http.StatusUnauthorized, "Invalid or expired refresh token")
	default:
		h.internal(c, err)
	}
}

func (h *Handler) Revoke(c *gin.Context) {
	user := currentUser(c)
	token, ok := bindRefreshToken(c)
	if !ok {
		return
	}

	err := h.auth.Revoke(c.Request.Context(), token, user.ID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, messageResponse{Message: "Refresh token revoked"})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenTypeMismatch):
		detail(c, http.StatusUnauthorized, "Invalid token")
	default:
		h.internal(c, err)
	}
}

func (h *Handler) TestToken(c *gin.Context) {
	c.JSON(http.StatusOK, newUserPublic(currentUser(c)))
}

func (h *Handler) RecoverPassword(c *gin.Context) {
	h.auth.RequestPasswordReset(c.Request.Context(), c.Param("email"))
	c.JSON(http.StatusOK, messageResponse{Message: "If the email exists, a recovery message was sent"})
}

type newPassword struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=40"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req newPassword
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusUnprocessableEntity, "token and new_password (8 to 40 characters) are required")
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully"})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenTypeMismatch):
		detail(c, http.StatusBadRequest, "Invalid token")
	case errors.Is(err, common.ErrUnknownAccount):
		detail(c, http.StatusNotFound, "The user with this email does not exist in the system.")
	case errors.Is(err, common.ErrInactiveAccount):
		detail(c, http.StatusBadRequest, "Inactive user")
	default:
		h.internal(c, err)
	}
}

// RecoverPasswordHTML returns the recovery email as HTML with its subject in
// the "subject" header.
func (h *Handler) RecoverPasswordHTML(c *gin.Context) {
	msg, err := h.auth.RenderPasswordReset(c.Request.Context(), c.Param("email"))
	switch {
	case err == nil:
		c.Header("subject", msg.Subject)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(msg.HTML))
	case errors.Is(err, common.ErrUnknownAccount):
		detail(c, http.StatusNotFound, "The user with this username does not exist in the system.")
	default:
		h.internal(c, err)
	}
}
