package common

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// IsTemporary 判断是否为临时性错误
func IsTemporary(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if temp, ok := err.(interface{ Temporary() bool }); ok {
		return temp.Temporary()
	}
	return false
}

// IsRetryable 判断是否可重试。业务写入路径不重试，只用于启动探活和日志分类
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return IsTemporary(err) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err)
}

// WithRetry 通用重试机制，每次失败后线性退避
func WithRetry(ctx context.Context, operation func(context.Context) error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second * time.Duration(i+1)):
		}
	}
	return err
}
