package authhandler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-chat/internal/domain"
	"jan-chat/internal/infrastructure/auth"
	"jan-chat/internal/interfaces/httpserver/middlewares"
)

// AuthHandler builds the auth chains routes are registered with.
type AuthHandler struct {
	validator middlewares.TokenValidator
	logger    zerolog.Logger
}

func NewAuthHandler(validator *auth.TokenValidator, logger zerolog.Logger) *AuthHandler {
	h := &AuthHandler{logger: logger}
	if validator != nil {
		h.validator = validator
	}
	return h
}

// NewAuthHandlerWithValidator is NewAuthHandler over any validator implementation.
func NewAuthHandlerWithValidator(validator middlewares.TokenValidator, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{validator: validator, logger: logger}
}

// WithRequiredAuth prepends authentication that rejects anonymous callers.
func (h *AuthHandler) WithRequiredAuth(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	return append([]gin.HandlerFunc{middlewares.RequireAuth(h.validator, h.logger)}, handlers...)
}

// WithOptionalAuth prepends authentication that lets anonymous callers through.
func (h *AuthHandler) WithOptionalAuth(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	return append([]gin.HandlerFunc{middlewares.OptionalAuth(h.validator, h.logger)}, handlers...)
}

// GetUserFromContext returns the authenticated principal, if any.
func GetUserFromContext(reqCtx *gin.Context) (domain.Principal, bool) {
	return middlewares.PrincipalFromContext(reqCtx)
}

// Ready reports whether token validation is available.
func (h *AuthHandler) Ready() bool {
	type readiness interface{ Ready() bool }
	if r, ok := h.validator.(readiness); ok {
		return r.Ready()
	}
	return true
}
