package middleware

import (
	"context"
	"strings"

	userservice "flagforge/internal/user/service"
	pkgerrors "flagforge/pkg/errors"
	"flagforge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Auth validates the bearer token and loads the caller's identity into
// the request. Routes behind it can rely on user_id, username and
// user_role being set.
func Auth(tokens *userservice.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth unavailable")
			return
		}

		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortWithErrorCode(c, pkgerrors.Unauthorized, "missing bearer token")
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Set("user_role", claims.Role)
		ctx := context.WithValue(c.Request.Context(), "user_id", claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not allowed.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("user_role")
		for _, allowed := range roles {
			if strings.EqualFold(role, allowed) {
				c.Next()
				return
			}
		}
		response.AbortWithErrorCode(c, pkgerrors.Forbidden, "insufficient role")
	}
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
