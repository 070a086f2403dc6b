package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBlacklist 记录已注销的令牌，条目在令牌过期后失效
type TokenBlacklist interface {
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
}

// MemoryTokenBlacklist 进程内黑名单，单实例部署时使用
type MemoryTokenBlacklist struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewMemoryTokenBlacklist() *MemoryTokenBlacklist {
	return &MemoryTokenBlacklist{tokens: make(map[string]time.Time)}
}

func (b *MemoryTokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = expiresAt
	return nil
}

func (b *MemoryTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	exp, ok := b.tokens[token]
	return ok && time.Now().Before(exp), nil
}

// CleanupExpiredTokens 清理已过期的条目
func (b *MemoryTokenBlacklist) CleanupExpiredTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for token, exp := range b.tokens {
		if now.After(exp) {
			delete(b.tokens, token)
		}
	}
}

// RedisTokenBlacklist 基于 Redis 的黑名单，多实例共享
type RedisTokenBlacklist struct {
	client *redis.Client
	prefix string
}

func NewRedisTokenBlacklist(redisURL string) (*RedisTokenBlacklist, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisTokenBlacklist{client: redis.NewClient(opts), prefix: "token:revoked:"}, nil
}

func (b *RedisTokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.prefix+token, 1, ttl).Err()
}

func (b *RedisTokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	n, err := b.client.Exists(ctx, b.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping 检查 Redis 连接
func (b *RedisTokenBlacklist) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
