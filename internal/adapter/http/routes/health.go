package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"todolist/internal/adapter/http/helper"
	"todolist/internal/core/domain"
)

var notFound = domain.NewError(domain.CodeNotFound, "Route not found")

func health(check func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c); err != nil {
				c.Error(err)
				helper.SendError(c, http.StatusServiceUnavailable, domain.CodeInternal, "unhealthy", nil)
				return
			}
		}

		helper.SendSuccess(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	}
}
