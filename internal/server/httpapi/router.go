package httpapi

import (
	"github.com/gin-gonic/gin"
)

// APIPrefix is where every route is mounted.
const APIPrefix = "/api/v1"

// NewRouter wires gin routes and middleware. Each flow is reachable under a
// short path and under the longer path older clients use.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.logger))

	api := r.Group(APIPrefix)
	{
		for _, p := range []string{"/login", "/login/access-token"} {
			api.POST(p, h.Login)
		}
		for _, p := range []string{"/refresh", "/login/refresh-token"} {
			api.POST(p, h.Refresh)
		}
		for _, p := range []string{"/revoke", "/login/revoke-token"} {
			api.POST(p, h.Bearer, h.Revoke)
		}
		api.POST("/login/test-token", h.Bearer, h.TestToken)

		api.POST("/password-recovery/:email", h.RecoverPassword)
		api.POST("/reset-password", h.ResetPassword)
		api.POST("/password-recovery-html-content/:email", h.Bearer, h.RequireSuperuser, h.RecoverPasswordHTML)
	}

	return r
}
