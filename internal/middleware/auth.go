package middleware

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// TokenCookie 会话令牌所在的 cookie
	TokenCookie = "jwt"

	ctxUserID    = "user_id"
	ctxToken     = "token"
	ctxTokenExp  = "token_exp"
	ctxRequestID = "request_id"

	authCheckTimeout = 5 * time.Second
)

// SessionChecker 认证中间件需要的用户服务能力
type SessionChecker interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware 从 cookie 或 Bearer 头读取令牌，校验后把 user_id 写入上下文
func AuthMiddleware(sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "Unauthorized: No Token Provided"))
			c.Abort()
			return
		}

		// 超时只作用于认证检查，不影响后续处理器
		ctx, cancel := context.WithTimeout(c.Request.Context(), authCheckTimeout)
		defer cancel()

		revoked, err := sessions.IsTokenBlacklisted(ctx, token)
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrCache, "查询令牌黑名单失败", err))
			c.Abort()
			return
		}
		if revoked {
			errors.HandleError(c, errors.New(errors.ErrInvalidToken, "Unauthorized: Token Revoked"))
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token)
		if err != nil {
			util.Logger.Debug("令牌校验失败", zap.Error(err))
			if stderrors.Is(err, util.ErrTokenExpired) {
				errors.HandleError(c, errors.Wrap(errors.ErrTokenExpired, "Unauthorized: Token Expired", err))
			} else {
				errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "Unauthorized: Invalid Token", err))
			}
			c.Abort()
			return
		}

		if _, err := sessions.GetUserByID(ctx, claims.UserID); err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxToken, token)
		c.Set(ctxTokenExp, claims.ExpiresAt)
		cancel()
		c.Next()
	}
}

// TokenFromRequest 优先读取 cookie，其次读取 Authorization 头
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUserID 返回认证中间件写入的用户ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// CurrentToken 返回本次请求使用的令牌及其过期时间
func CurrentToken(c *gin.Context) (string, time.Time) {
	return c.GetString(ctxToken), c.GetTime(ctxTokenExp)
}
