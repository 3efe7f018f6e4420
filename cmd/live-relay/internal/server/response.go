package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/ankurMishraDev/GenX-AI/pkg/errors"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Fail 错误响应，Code 为业务码
func Fail(c *gin.Context, err error) {
	e := pkgerrors.FromError(err)
	c.AbortWithStatusJSON(int(e.Code), Response{
		Code:    pkgerrors.BusinessCode(err),
		Message: e.Message,
	})
}
