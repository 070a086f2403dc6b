package user

import (
	"net/http"

	"social-backend/config"
	"social-backend/internal/errors"
	"social-backend/internal/middleware"
	"social-backend/internal/service"
	"social-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	userService service.UserServiceInterface
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(userService service.UserServiceInterface) *AuthHandler {
	return &AuthHandler{userService}
}

// Signup 处理用户注册请求
func (h *AuthHandler) Signup(c *gin.Context) {
	var signupData struct {
		FullName string `json:"fullName" binding:"required"`
		Username string `json:"username" binding:"required,username"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&signupData); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid request data", err))
		return
	}

	user, err := h.userService.Signup(c.Request.Context(), service.SignupInput{
		FullName: signupData.FullName,
		Username: signupData.Username,
		Email:    signupData.Email,
		Password: signupData.Password,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	if err := setSessionCookie(c, user.ID); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, user)
}

// Login 处理用户登录请求
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid request data", err))
		return
	}

	user, err := h.userService.Login(c.Request.Context(), loginData.Username, loginData.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}
	writeCookie(c, token, int(config.AppConfig.TokenTTL.Seconds()))

	errors.HandleSuccess(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout 清除 cookie，并把仍然有效的令牌加入黑名单
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.TokenFromRequest(c); token != "" {
		if claims, err := util.ValidateToken(token); err == nil {
			if err := h.userService.Logout(c.Request.Context(), token, claims.ExpiresAt); err != nil {
				errors.HandleError(c, err)
				return
			}
		}
	}
	writeCookie(c, "", -1)
	errors.HandleMessage(c, "Logged out successfully")
}

// Me 返回当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, user)
}

func setSessionCookie(c *gin.Context, userID string) error {
	token, err := util.GenerateToken(userID)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "生成令牌失败", err)
	}
	writeCookie(c, token, int(config.AppConfig.TokenTTL.Seconds()))
	return nil
}

func writeCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, value, maxAge, "/", "", config.AppConfig.CookieSecure, true)
}
