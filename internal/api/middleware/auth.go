// Package middleware provides HTTP middleware functions for the ITSM API server.
// It includes authentication, route policy, logging, CORS, rate limiting and
// metrics, applied to HTTP requests before they reach the handlers.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aleckzsalas-29/itsm2/internal/auth"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
	"github.com/aleckzsalas-29/itsm2/internal/service"
)

const userKey = "user"

// Authenticator resolves a bearer token to the calling user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware validates the bearer token and stores the caller in the
// request context. Routes the policy marks public pass through untouched.
func AuthMiddleware(users Authenticator, policy *auth.Policy, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if policy.IsPublic(c.Request.Method, c.FullPath()) {
			c.Next()
			return
		}

		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token inválido"})
				return
			}
			token = strings.TrimSpace(parts[1])
		}

		user, err := users.Authenticate(c.Request.Context(), token)
		if err != nil {
			var svcErr *service.Error
			switch {
			case errors.Is(err, service.ErrNotFound) && errors.As(err, &svcErr):
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": svcErr.Message})
			case errors.Is(err, service.ErrUnauthorized) && errors.As(err, &svcErr):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": svcErr.Message})
			default:
				logger.Error("Failed to authenticate request", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Error interno del servidor"})
			}
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// PolicyMiddleware enforces the route policy for the authenticated caller.
// Routes absent from the policy are denied.
func PolicyMiddleware(policy *auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		method, path := c.Request.Method, c.FullPath()
		if policy.IsPublic(method, path) {
			c.Next()
			return
		}

		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No autorizado"})
			return
		}
		if err := policy.Authorize(method, path, user.Rol); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Permisos insuficientes"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller stored by AuthMiddleware
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
