package middleware

import (
	"social-backend/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorMonitor 汇总处理器通过 c.Error 上报的错误
type ErrorMonitor struct {
	analytics *errors.ErrorAnalytics
}

func NewErrorMonitor() *ErrorMonitor {
	return &ErrorMonitor{analytics: errors.NewErrorAnalytics()}
}

func (m *ErrorMonitor) RecordError(err *errors.TracedError) {
	m.analytics.Record(err)
}

// Stats 返回错误统计
func (m *ErrorMonitor) Stats() map[string]interface{} {
	return m.analytics.GetStats()
}

func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			traced := errors.NewTracedError(e.Err, errors.ErrorContext{
				RequestID: GetRequestID(c),
				UserID:    CurrentUserID(c),
				Path:      c.FullPath(),
				Method:    c.Request.Method,
				Status:    c.Writer.Status(),
			})
			if traced.Context.Path == "" {
				traced.Context.Path = c.Request.URL.Path
			}
			monitor.RecordError(traced)

			zap.L().Warn("请求处理错误",
				zap.Int("error_code", int(traced.Code)),
				zap.String("error_message", traced.Message),
				zap.NamedError("cause", traced.Err),
				zap.String("request_id", traced.Context.RequestID),
				zap.String("path", traced.Context.Path),
				zap.String("method", traced.Context.Method),
				zap.Int("status", traced.Context.Status))
		}
	}
}
