package errors

import (
	"fmt"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

// 错误码规范：
// - 1xxxx: 通用错误（HTTP 4xx）
// - 4xxxx: 外部服务错误
// - 5xxxx: 系统级错误（HTTP 5xx）
const (
	CodeBadRequest      = 10000
	CodeUnauthorized    = 10001
	CodeNotFound        = 10003
	CodeTooManyRequests = 10006

	CodeUpstreamUnavailable = 40000
	CodeUpstreamAuthFailed  = 40001
	CodeBackendUnavailable  = 40100
	CodeCircuitBreakerOpen  = 40003

	CodeInternalServerError = 50000
	CodeServiceUnavailable  = 50001
)

// httpStatus 错误码到HTTP状态码
var httpStatus = map[int]int{
	CodeBadRequest:          http.StatusBadRequest,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeNotFound:            http.StatusNotFound,
	CodeTooManyRequests:     http.StatusTooManyRequests,
	CodeUpstreamUnavailable: http.StatusBadGateway,
	CodeUpstreamAuthFailed:  http.StatusBadGateway,
	CodeBackendUnavailable:  http.StatusBadGateway,
	CodeCircuitBreakerOpen:  http.StatusServiceUnavailable,
	CodeInternalServerError: http.StatusInternalServerError,
	CodeServiceUnavailable:  http.StatusServiceUnavailable,
}

// New 创建带业务码的错误，reason 形如 "ERR_40000"
func New(code int, message string) *errors.Error {
	status, ok := httpStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return errors.New(status, fmt.Sprintf("ERR_%d", code), message).
		WithMetadata(map[string]string{"code": fmt.Sprint(code)})
}

// NewUnauthorized 创建未授权错误
func NewUnauthorized(message string) *errors.Error {
	return New(CodeUnauthorized, message)
}

// NewBadRequest 创建请求错误
func NewBadRequest(message string) *errors.Error {
	return New(CodeBadRequest, message)
}

// NewServiceUnavailable 创建服务不可用错误
func NewServiceUnavailable(message string) *errors.Error {
	return New(CodeServiceUnavailable, message)
}

// BusinessCode 提取业务码，非本包错误返回 CodeInternalServerError
func BusinessCode(err error) int {
	e := errors.FromError(err)
	if e == nil {
		return 0
	}
	var code int
	if _, scanErr := fmt.Sscan(e.Metadata["code"], &code); scanErr != nil {
		return CodeInternalServerError
	}
	return code
}

// FromError 转换为 kratos 错误
func FromError(err error) *errors.Error {
	return errors.FromError(err)
}
