package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/courseauth/internal/common"
	"github.com/dmitrijs2005/courseauth/internal/logging"
	"github.com/dmitrijs2005/courseauth/internal/server/models"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// Bearer resolves the Authorization bearer access token to an active user
// and stores it on the context.
func (h *Handler) Bearer(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerTokenType) || strings.TrimSpace(token) == "" {
		c.Header("WWW-Authenticate", "Bearer")
		detail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), strings.TrimSpace(token))
	switch {
	case err == nil:
		c.Set(currentUserKey, user)
		c.Next()
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenTypeMismatch):
		detail(c, http.StatusForbidden, "Could not validate credentials")
	case errors.Is(err, common.ErrUnknownAccount):
		detail(c, http.StatusNotFound, "User not found")
	case errors.Is(err, common.ErrInactiveAccount):
		detail(c, http.StatusBadRequest, "Inactive user")
	default:
		h.internal(c, err)
	}
}

// RequireSuperuser must run after Bearer.
func (h *Handler) RequireSuperuser(c *gin.Context) {
	if u := currentUser(c); u == nil || !u.IsSuperuser {
		detail(c, http.StatusForbidden, "The user doesn't have enough privileges")
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// RequestLogger logs one line per request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error(c.Request.Context(), "request", args...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Warn(c.Request.Context(), "request", args...)
		default:
			logger.Info(c.Request.Context(), "request", args...)
		}
	}
}
