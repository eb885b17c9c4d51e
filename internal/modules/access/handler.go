package access

import (
	"errors"
	"net/http"

	"carrental/internal/domain"
	"carrental/internal/modules/session"
	"carrental/internal/pkg/response"
	"carrental/internal/pkg/token"
	"carrental/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the guard over HTTP so frontends can pre-flight a
// route before navigating. The check endpoint is itself public: an
// unauthenticated caller asking about a protected route gets a proper
// NOT_AUTHENTICATED decision, not a 401.
type Handler struct {
	guard    *Guard
	sessions *session.Service
	tokens   *token.Service
}

func NewHandler(guard *Guard, sessions *session.Service, tokens *token.Service) *Handler {
	return &Handler{guard: guard, sessions: sessions, tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	ac := rg.Group("/access")
	ac.POST("/check", h.Check)
	ac.GET("/summary", h.Summary)
}

type checkRequest struct {
	Path       string `json:"path" validate:"required"`
	Role       string `json:"required_role"`
	Permission string `json:"required_permission"`
}

func (h *Handler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", details)
		return
	}

	var requiredRole domain.Role
	if req.Role != "" {
		role, ok := domain.ParseRole(req.Role)
		if !ok {
			response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Unknown role")
			return
		}
		requiredRole = role
	}

	decision := h.guard.Check(Request{
		Path:               req.Path,
		Session:            h.currentSession(c),
		RequiredRole:       requiredRole,
		RequiredPermission: req.Permission,
	})
	response.Success(c, http.StatusOK, decision)
}

func (h *Handler) Summary(c *gin.Context) {
	response.Success(c, http.StatusOK, h.guard.AccessSummary(h.currentSession(c)))
}

// currentSession resolves the bearer token to a live session, nil when
// absent, malformed or expired. Guard decisions treat all three alike.
func (h *Handler) currentSession(c *gin.Context) *domain.Session {
	raw := token.FromHeader(c.GetHeader("Authorization"))
	if raw == "" {
		return nil
	}
	claims, err := h.tokens.Parse(raw)
	if err != nil {
		return nil
	}
	sess, err := h.sessions.Validate(c.Request.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionExpired) || errors.Is(err, session.ErrSessionNotFound) {
			return nil
		}
		return nil
	}
	return sess
}
