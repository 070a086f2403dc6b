package main

import (
	"context"
	"fmt"
	"time"

	"social-backend/config"
	"social-backend/internal/common"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/repository/memory"
	"social-backend/internal/repository/mongo"
	"social-backend/internal/repository/mysql"
	"social-backend/internal/service"
	"social-backend/internal/util"

	"go.uber.org/zap"
)

const connectRetries = 3

// repositories 三种存储后端共同提供的仓库集合
type repositories interface {
	Users() interfaces.UserRepository
	Posts() interfaces.PostRepository
	Notifications() interfaces.NotificationRepository
}

// openStore 按配置连接存储并建好索引或表结构，返回关闭函数
func openStore(ctx context.Context, cfg config.Config) (repositories, func(), error) {
	switch cfg.StoreDriver {
	case "mongo":
		var store *mongo.Store
		err := common.WithRetry(ctx, func(ctx context.Context) error {
			var err error
			store, err = mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
			return err
		}, connectRetries)
		if err != nil {
			return nil, nil, fmt.Errorf("连接 MongoDB 失败: %w", err)
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, nil, fmt.Errorf("创建索引失败: %w", err)
		}
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				util.Logger.Warn("关闭 MongoDB 连接失败", zap.Error(err))
			}
		}, nil

	case "mysql":
		var store *mysql.Store
		err := common.WithRetry(ctx, func(ctx context.Context) error {
			db, err := mysql.Open(ctx, cfg.MySQLDSN())
			if err != nil {
				return err
			}
			if err := mysql.EnsureSchema(ctx, db); err != nil {
				db.Close()
				return err
			}
			store = mysql.NewStore(db)
			return nil
		}, connectRetries)
		if err != nil {
			return nil, nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				util.Logger.Warn("关闭数据库连接失败", zap.Error(err))
			}
		}, nil

	case "memory":
		util.Logger.Warn("使用内存存储，重启后数据丢失")
		return memory.NewStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("不支持的存储: %s", cfg.StoreDriver)
}

// newTokenBlacklist 配置了 Redis 时多实例共享黑名单，否则使用进程内黑名单
func newTokenBlacklist(ctx context.Context, cfg config.Config) (service.TokenBlacklist, error) {
	if cfg.RedisURL == "" {
		blacklist := service.NewMemoryTokenBlacklist()
		go func() {
			ticker := time.NewTicker(10 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					blacklist.CleanupExpiredTokens()
				}
			}
		}()
		return blacklist, nil
	}

	blacklist, err := service.NewRedisTokenBlacklist(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("解析 REDIS_URL 失败: %w", err)
	}
	if err := blacklist.Ping(ctx); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	util.Logger.Info("Redis 令牌黑名单已启用")
	return blacklist, nil
}
