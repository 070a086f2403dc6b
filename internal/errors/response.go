package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"error"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,
	ErrCache:    http.StatusInternalServerError,
	ErrTimeout:  http.StatusGatewayTimeout,
	ErrMedia:    http.StatusInternalServerError,

	// 认证错误 (2000-2999)，越权操作同样返回 401，登录失败按前端约定返回 400
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusBadRequest,
	ErrNotAuthor:          http.StatusUnauthorized,

	// 请求错误 (3000-3999)
	ErrBadRequest:      http.StatusBadRequest,
	ErrValidation:      http.StatusBadRequest,
	ErrTooManyRequests: http.StatusTooManyRequests,
	ErrPayloadTooLarge: http.StatusRequestEntityTooLarge,

	// 业务错误 (4000-4999)，重名冲突沿用前端约定的 400
	ErrUserNotFound:  http.StatusNotFound,
	ErrUserExists:    http.StatusBadRequest,
	ErrWeakPassword:  http.StatusBadRequest,
	ErrPostNotFound:  http.StatusNotFound,
	ErrEmailExists:   http.StatusBadRequest,
	ErrSelfReference: http.StatusBadRequest,
	ErrEmptyPost:     http.StatusBadRequest,
}

// StatusOf 返回错误对应的 HTTP 状态码
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		if status, ok := errorStatusMap[appErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// HandleError 统一处理错误响应
func HandleError(c *gin.Context, err error) {
	status := StatusOf(err)
	_ = c.Error(err)

	appErr, ok := As(err)
	if !ok {
		appErr = Wrap(ErrInternal, "Internal Server Error", err)
	}

	// 5xx 不向客户端暴露内部细节
	if status >= http.StatusInternalServerError {
		zap.L().Error("请求处理失败",
			zap.Int("error_code", int(appErr.Code)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(status, ErrorResponse{
			Code:    appErr.Code,
			Message: "Internal Server Error",
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// HandleCreated 返回 201
func HandleCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// HandleMessage 返回只有提示信息的成功响应
func HandleMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}
