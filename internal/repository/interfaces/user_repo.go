package interfaces

import (
	"context"

	"social-backend/internal/model"
)

// UserRepository 接口定义了身份存储应该实现的方法
// 查找类方法在文档不存在时返回 (nil, nil)
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Update 只更新资料与凭据字段，不触碰集合字段
	Update(ctx context.Context, user *model.User) error
	// AddToSet 与 RemoveFromSet 是单文档原子操作，具有集合语义
	AddToSet(ctx context.Context, userID string, field model.UserSetField, ref string) error
	RemoveFromSet(ctx context.Context, userID string, field model.UserSetField, ref string) error
	Sample(ctx context.Context, excludeID string, size int) ([]*model.User, error)
	FindAll(ctx context.Context) ([]*model.User, error)
	Ping(ctx context.Context) error
}
