package middleware

import (
	"net/http"

	"social-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

// BodyLimit 限制请求体大小，图片以 base64 放在 JSON 中时同样受限
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			errors.HandleError(c, errors.New(errors.ErrPayloadTooLarge, "Request body too large"))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
