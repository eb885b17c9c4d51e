package middleware

import (
	"errors"
	"net/http"

	"carrental/internal/modules/session"
	"carrental/internal/pkg/response"
	"carrental/internal/pkg/token"

	"github.com/gin-gonic/gin"
)

// Auth resolves the bearer token to a live session and stores the
// principal on the request context. The token only carries the session
// id; validity is always decided against the server-held session.
func Auth(tokens *token.Service, sessions *session.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := token.FromHeader(c.GetHeader("Authorization"))
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "AUTH_INVALID", "Invalid or expired token")
			c.Abort()
			return
		}

		sess, err := sessions.Validate(c.Request.Context(), claims.SessionID)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrSessionExpired):
				response.Error(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session has expired")
			case errors.Is(err, session.ErrSessionNotFound):
				response.Error(c, http.StatusUnauthorized, "SESSION_NOT_FOUND", "Session does not exist")
			default:
				response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Session service failure")
			}
			c.Abort()
			return
		}

		c.Set("session_id", sess.ID)
		c.Set("user_id", sess.PrincipalID)
		c.Set("role", string(sess.Role))
		c.Next()
	}
}
