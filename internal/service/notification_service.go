package service

import (
	"context"

	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/util"

	"go.uber.org/zap"
)

type NotificationService struct {
	notifications interfaces.NotificationRepository
	populate      populator
}

func NewNotificationService(notifications interfaces.NotificationRepository, users interfaces.UserRepository) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		populate:      populator{users: users},
	}
}

// List 返回接收者的通知（最新在前），返回后全部标记为已读。
// 本次返回的是标记前的状态。
func (s *NotificationService) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	list, err := s.notifications.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, errors.Store("查询通知失败", err)
	}
	list, err = s.populate.notifications(ctx, list)
	if err != nil {
		return nil, err
	}
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return nil, errors.Store("标记通知已读失败", err)
	}
	util.Logger.Debug("通知已读", util.UserID(userID), zap.Int("count", len(list)))
	return list, nil
}

// DeleteAll 删除接收者的全部通知
func (s *NotificationService) DeleteAll(ctx context.Context, userID string) error {
	if err := s.notifications.DeleteByRecipient(ctx, userID); err != nil {
		return errors.Store("删除通知失败", err)
	}
	return nil
}
