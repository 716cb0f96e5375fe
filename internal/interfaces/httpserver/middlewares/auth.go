package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-chat/internal/domain"
	"jan-chat/internal/infrastructure/auth"
	"jan-chat/internal/infrastructure/metrics"
	"jan-chat/internal/interfaces/httpserver/responses"
	"jan-chat/internal/utils/platformerrors"
)

const principalContextKey = "principal"

// TokenValidator validates a raw bearer token.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*auth.PrincipalClaims, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(validator TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	return authMiddleware(validator, logger, true)
}

// OptionalAuth admits anonymous requests but rejects a present, invalid token.
func OptionalAuth(validator TokenValidator, logger zerolog.Logger) gin.HandlerFunc {
	return authMiddleware(validator, logger, false)
}

func authMiddleware(validator TokenValidator, logger zerolog.Logger, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, hasToken := bearerToken(c.GetHeader("Authorization"))
		if !hasToken {
			if required {
				metrics.RecordAuth("missing")
				logger.Warn().
					Str("path", c.FullPath()).
					Str("method", c.Request.Method).
					Msg("unauthenticated request")
				responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e")
				return
			}
			metrics.RecordAuth("anonymous")
			c.Next()
			return
		}

		if validator == nil {
			metrics.RecordAuth("disabled")
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication is not configured", "3c4d5e6f-7a8b-4c9d-8e1f-2a3b4c5d6e7f")
			return
		}

		claims, err := validator.Validate(c.Request.Context(), rawToken)
		if err != nil {
			metrics.RecordAuth("invalid")
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("jwt validation failed")
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized,
				platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute, platformerrors.ErrorTypeUnauthorized, "invalid token", err, "4d5e6f7a-8b9c-4d0e-9f2a-3b4c5d6e7f8a"),
				"unauthorized")
			return
		}

		metrics.RecordAuth("ok")
		setPrincipal(c, domain.Principal{
			ID:         claims.Subject,
			AuthMethod: domain.AuthMethodJWT,
			Subject:    claims.Subject,
			Issuer:     claims.Issuer,
			Email:      claims.Email,
			Role:       claims.Role,
			Audience:   claims.Audience,
		})
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok && principal.Authenticated()
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
	c.Set("user_id", principal.ID)
	c.Set("user_email", principal.Email)
	c.Writer.Header().Set("X-Principal-Id", principal.ID)
	c.Writer.Header().Set("X-Auth-Method", string(principal.AuthMethod))
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
