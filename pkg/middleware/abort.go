package middleware

import (
	"github.com/gin-gonic/gin"

	pkgerrors "github.com/ankurMishraDev/GenX-AI/pkg/errors"
)

// abortWithError 按错误携带的 HTTP 状态终止请求，响应体带业务码
func abortWithError(c *gin.Context, err error, extra gin.H) {
	e := pkgerrors.FromError(err)
	body := gin.H{
		"code":    pkgerrors.BusinessCode(err),
		"message": e.Message,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(int(e.Code), body)
}
