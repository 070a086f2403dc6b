package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-backend/config"
	"social-backend/internal/api"
	"social-backend/internal/middleware"
	"social-backend/internal/service"
	"social-backend/internal/storage"
	"social-backend/internal/util"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.AppConfig)
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := context.WithCancel(parent)
	defer stop()

	util.Logger.Info("应用程序启动", zap.String("store", cfg.StoreDriver), zap.String("media", cfg.MediaDriver))

	repos, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	media, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	blacklist, err := newTokenBlacklist(ctx, cfg)
	if err != nil {
		return err
	}

	var mailer service.Mailer
	if cfg.MailEnabled() {
		mailer = service.NewEmailService()
	} else {
		util.Logger.Info("未配置 SMTP，跳过欢迎邮件")
	}

	users := repos.Users()
	posts := repos.Posts()
	notifications := repos.Notifications()

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	authLimiter.StartCleanup(ctx, 10*time.Minute)

	router := api.NewRouter(cfg, api.Dependencies{
		Users:         service.NewUserService(users, media, mailer, blacklist),
		Feed:          service.NewFeedService(users, posts, media),
		Engine:        service.NewEngagementEngine(users, posts, notifications, media),
		Notifications: service.NewNotificationService(notifications, users),
		ErrorMonitor:  middleware.NewErrorMonitor(),
		AuthLimiter:   authLimiter,
		Health:        users.Ping,
	})

	// 定时对账
	if cfg.ReconcileSchedule != "" {
		reconciler := service.NewReconciler(users, posts)
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.ReconcileSchedule, func() {
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			if _, err := reconciler.Run(runCtx, true); err != nil {
				util.Logger.Error("定时对账失败", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
		util.Logger.Info("定时对账已启用", zap.String("schedule", cfg.ReconcileSchedule))
	}

	// 创建一个带有超时的 http.Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	if cfg.Debug {
		for _, route := range router.Routes() {
			util.Logger.Debug("路由", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, ok := <-serverErr:
		if ok {
			util.Logger.Error("启动服务器失败", zap.Error(err))
			return err
		}
	case <-quit:
	}
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
		return err
	}

	util.Logger.Info("服务器已优雅关闭")
	return nil
}
