package interfaces

import (
	"context"

	"social-backend/internal/model"
)

// PostRepository 定义了内容存储的操作接口
// 列表方法一律按创建时间倒序返回
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id string) (*model.Post, error)
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) error
	RemoveLike(ctx context.Context, postID, userID string) error
	AppendComment(ctx context.Context, postID string, comment *model.Comment) error
	ListAll(ctx context.Context) ([]*model.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error)
}

// NotificationRepository 定义了通知存储的操作接口
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListByRecipient(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	DeleteByRecipient(ctx context.Context, userID string) error
}
