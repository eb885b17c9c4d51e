package session

import (
	"errors"
	"net/http"

	"carrental/internal/pkg/response"
	"carrental/internal/pkg/token"
	"carrental/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	tokens  *token.Service
}

func NewHandler(service *Service, tokens *token.Service) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/login", h.Login)
}

// RegisterProtectedRoutes attaches the endpoints that need a session.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.GET("/session", h.CurrentSession)
	auth.POST("/extend", h.Extend)
	auth.POST("/logout", h.Logout)
}

type LoginRequest struct {
	Role       string `json:"role" validate:"required"`
	Identifier string `json:"identifier" validate:"required"`
	Secret     string `json:"secret" validate:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields", details)
		return
	}

	sess, err := h.service.Authenticate(c.Request.Context(), req.Role, req.Identifier, req.Secret)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Unknown user role")
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid identifier or access code")
		default:
			response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Authentication service unavailable")
		}
		return
	}

	bearer, err := h.tokens.Generate(sess.ID, sess.PrincipalID, string(sess.Role))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Could not issue token")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":   bearer,
		"session": sess,
	})
}

func (h *Handler) CurrentSession(c *gin.Context) {
	sessionID := c.GetString("session_id")
	sess, err := h.service.Validate(c.Request.Context(), sessionID)
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session":           sess,
		"expires_in_seconds": int64(h.service.TimeUntilExpiry(c.Request.Context(), sessionID).Seconds()),
	})
}

func (h *Handler) Extend(c *gin.Context) {
	sessionID := c.GetString("session_id")
	sess, err := h.service.Extend(c.Request.Context(), sessionID)
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

func (h *Handler) Logout(c *gin.Context) {
	sessionID := c.GetString("session_id")
	if err := h.service.Revoke(c.Request.Context(), sessionID); err != nil {
		response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Could not revoke session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

func (h *Handler) writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionExpired):
		response.Error(c, http.StatusUnauthorized, "SESSION_EXPIRED", "Session has expired")
	case errors.Is(err, ErrSessionNotFound):
		response.Error(c, http.StatusUnauthorized, "SESSION_NOT_FOUND", "Session does not exist")
	default:
		response.Error(c, http.StatusInternalServerError, "SYSTEM_ERROR", "Session service failure")
	}
}
