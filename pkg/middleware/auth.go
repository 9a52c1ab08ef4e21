package middleware

import (
	"strings"

	"casting-studio/backend/pkg/jwt"
	"casting-studio/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OptionalAuth resolves the caller's user ID from a bearer token when one is
// present. Authentication itself is delegated to the external session
// provider; requests without a token (or with an unparseable one) proceed and
// fall back to the userId supplied in the request body.
func OptionalAuth(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			log.Debug("ignoring unverifiable bearer token", "error", err.Error())
			c.Next()
			return
		}

		// NOTE: the context key is always 'userId' (lowercase 'd').
		c.Set("userId", claims.UserID)
		c.Next()
	}
}
