package response

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-cloudbox/internal/pkg/logger"
	"github.com/3Eeeecho/go-cloudbox/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 是通用 JSON 响应结构
type Response struct {
	Code    int    `json:"code"`    // 业务状态码
	Message string `json:"message"` // 消息
	Data    any    `json:"data"`    // 响应数据
}

// JSONResponse 发送标准 JSON 响应
func JSONResponse(c *gin.Context, httpStatus int, code int, message string, data any) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success 成功响应
func Success(c *gin.Context, httpStatus int, message string, data any) {
	JSONResponse(c, httpStatus, xerr.SuccessCode, message, data)
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	JSONResponse(c, httpStatus, code, message, nil)
}

// AbortWithError 终止请求并发送错误响应
func AbortWithError(c *gin.Context, httpStatus int, code int, message string) {
	Error(c, httpStatus, code, message)
	c.Abort() // 终止后续的 HandlerFunc
}

// StatusOf 把错误分类映射为 HTTP 状态码
func StatusOf(err error) int {
	switch {
	case errors.Is(err, xerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, xerr.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, xerr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, xerr.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, xerr.ErrDuplicateState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 统一处理 service 层返回的错误
// 500 类错误只返回 fallback 信息，详细错误写入日志
func HandleError(c *gin.Context, err error, fallback string) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback,
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Error(err))
		Error(c, status, xerr.CodeOf(err), fallback)
		return
	}

	msg, ok := xerr.MessageOf(err)
	if !ok {
		msg = err.Error()
	}
	Error(c, status, xerr.CodeOf(err), msg)
}
