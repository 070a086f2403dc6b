package notification

import (
	"social-backend/internal/errors"
	"social-backend/internal/middleware"
	"social-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService}
}

// List 返回通知列表，返回后全部标记为已读
func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.notificationService.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, list)
}

func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	if err := h.notificationService.DeleteAll(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleMessage(c, "Notifications deleted successfully")
}
