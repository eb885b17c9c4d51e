package middleware

import (
	"net/http"

	"carrental/internal/domain"
	"carrental/internal/modules/access"
	"carrental/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole gates a route group to a single role. Runs after Auth.
func RequireRole(guard *access.Guard, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Check(access.Request{
			Path:         c.Request.URL.Path,
			Session:      sessionFromContext(c),
			RequiredRole: role,
		})
		if !decision.Allowed {
			writeDenial(c, decision)
			return
		}
		c.Next()
	}
}

// RequirePermission gates a route on a named capability.
func RequirePermission(guard *access.Guard, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Check(access.Request{
			Path:               c.Request.URL.Path,
			Session:            sessionFromContext(c),
			RequiredPermission: permission,
		})
		if !decision.Allowed {
			writeDenial(c, decision)
			return
		}
		c.Next()
	}
}

// sessionFromContext rebuilds the minimal session view the guard needs
// from the keys Auth stored.
func sessionFromContext(c *gin.Context) *domain.Session {
	sessionID := c.GetString("session_id")
	if sessionID == "" {
		return nil
	}
	role, ok := domain.ParseRole(c.GetString("role"))
	if !ok {
		return nil
	}
	return &domain.Session{
		ID:          sessionID,
		PrincipalID: c.GetInt64("user_id"),
		Role:        role,
	}
}

func writeDenial(c *gin.Context, d access.Decision) {
	status := http.StatusForbidden
	if d.Reason == access.ReasonNotAuthenticated {
		status = http.StatusUnauthorized
	}
	response.ErrorWithDetails(c, status, string(d.Reason), "Access denied", gin.H{
		"redirect": d.Redirect,
	})
	c.Abort()
}
