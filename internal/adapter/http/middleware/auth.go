package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"todolist/internal/adapter/http/helper"
	"todolist/internal/core/domain"
	"todolist/internal/core/port"
	ct "todolist/pkg/context"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "x-user-id"

// JwtMiddleware requires a valid "Bearer <access token>" Authorization header.
func JwtMiddleware(tokens port.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))

		if !ok {
			helper.SendUnauthorizedError(c, domain.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, err := tokens.Verify(raw, port.AccessToken)

		if err != nil {
			helper.SendUnauthorizedError(c, err)
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)

		if current, ok := ct.FromContext(c.Request.Context()); ok {
			current.Set(ct.UserIDKey, userID)
		}

		c.Next()
	}
}

// UserID returns the id set by JwtMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")

	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}
