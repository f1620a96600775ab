package util

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func ParamsToMap[T any](c *gin.Context) (T, error) {
	var params T

	if err := c.ShouldBindJSON(&params); err != nil {
		return params, err
	}

	return params, nil
}

// FormOrJSON binds multipart/url-encoded forms and JSON bodies alike.
func FormOrJSON[T any](c *gin.Context) (T, error) {
	var params T

	if c.ContentType() == binding.MIMEJSON {
		return ParamsToMap[T](c)
	}

	if err := c.ShouldBind(&params); err != nil {
		return params, err
	}

	return params, nil
}
