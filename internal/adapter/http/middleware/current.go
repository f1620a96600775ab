package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ct "todolist/pkg/context"
)

const (
	RequestIDHeader = "X-Request-ID"
	currentKey      = "current"
)

// CurrentMiddleware attaches a request-scoped Current to both the gin and
// the request context, reusing the caller's X-Request-ID when present.
func CurrentMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		current := ct.NewCurrent()

		requestID := c.GetHeader(RequestIDHeader)

		if requestID == "" {
			requestID = uuid.NewString()
		}

		current.Set(ct.RequestIDKey, requestID)
		current.Set(ct.ClientIPKey, c.ClientIP())
		current.Set("user_agent", c.Request.UserAgent())
		current.Set("method", c.Request.Method)
		current.Set("path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ct.WithCurrent(c.Request.Context(), current))
		c.Set(currentKey, current)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

func GetCurrent(c *gin.Context) *ct.Current {
	if current, ok := c.Get(currentKey); ok {
		if curr, ok := current.(*ct.Current); ok {
			return curr
		}
	}

	return ct.GetCurrent(c.Request.Context())
}
