// Package api 组装 HTTP 路由
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"social-backend/config"
	"social-backend/internal/api/notification"
	"social-backend/internal/api/post"
	"social-backend/internal/api/user"
	"social-backend/internal/errors"
	"social-backend/internal/metrics"
	"social-backend/internal/middleware"
	"social-backend/internal/service"
	"social-backend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies 路由需要的服务
type Dependencies struct {
	Users         *service.UserService
	Feed          *service.FeedService
	Engine        *service.EngagementEngine
	Notifications *service.NotificationService
	ErrorMonitor  *middleware.ErrorMonitor
	AuthLimiter   *middleware.RateLimiter // 为空时不限流
	Health        func(ctx context.Context) error
}

// NewRouter 创建 gin 引擎并注册全部路由
func NewRouter(cfg config.Config, deps Dependencies) *gin.Engine {
	util.RegisterValidators()
	if deps.ErrorMonitor == nil {
		deps.ErrorMonitor = middleware.NewErrorMonitor()
	}

	r := gin.New()
	if cfg.Debug {
		r.Use(gin.Logger())
	}

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.RequestID())
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(deps.ErrorMonitor))
	r.Use(cors.New(corsConfig(cfg)))

	if cfg.MediaDriver == "local" && cfg.LocalStoragePath != "" {
		r.Static("/uploads", cfg.LocalStoragePath)
	}

	r.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				errors.HandleError(c, errors.Store("存储不可用", err))
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	authHandler := user.NewAuthHandler(deps.Users)
	profileHandler := user.NewProfileHandler(deps.Users, deps.Engine)
	postHandler := post.NewPostHandler(deps.Feed, deps.Engine)
	notificationHandler := notification.NewNotificationHandler(deps.Notifications)
	requireAuth := middleware.AuthMiddleware(deps.Users)

	// 定义 API 路由
	api := r.Group("/api")
	api.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	{
		auth := api.Group("/auth")
		if deps.AuthLimiter != nil {
			auth.Use(deps.AuthLimiter.Handler())
		}
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)

		users := api.Group("/users", requireAuth)
		users.GET("/profile/:username", profileHandler.GetProfile)
		users.GET("/suggested", profileHandler.Suggested)
		users.POST("/follow/:id", profileHandler.Follow)
		users.POST("/update", profileHandler.UpdateProfile)

		posts := api.Group("/posts", requireAuth)
		posts.GET("/all", postHandler.ListAll)
		posts.GET("/following", postHandler.ListFollowing)
		posts.GET("/likes/:id", postHandler.ListLiked)
		posts.GET("/user/:username", postHandler.ListByUser)
		posts.POST("/create", postHandler.CreatePost)
		posts.POST("/like/:id", postHandler.LikePost)
		posts.POST("/comment/:id", postHandler.CommentOnPost)
		posts.DELETE("/:id", postHandler.DeletePost)

		notifications := api.Group("/notifications", requireAuth)
		notifications.GET("", notificationHandler.List)
		notifications.DELETE("", notificationHandler.DeleteAll)

		if cfg.Debug {
			api.GET("/debug/errors", func(c *gin.Context) {
				errors.HandleSuccess(c, deps.ErrorMonitor.Stats())
			})
		}
	}

	return r
}

// 配置 CORS
func corsConfig(cfg config.Config) cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{strings.TrimRight(cfg.FrontendURL, "/")}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		middleware.RequestIDHeader,
	}
	return corsConfig
}
