package user

import (
	"context"

	"social-backend/internal/errors"
	"social-backend/internal/middleware"
	"social-backend/internal/service"
	"social-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Follower 关注切换
type Follower interface {
	ToggleFollow(ctx context.Context, actorID, targetID string) (service.FollowState, error)
}

type ProfileHandler struct {
	userService service.UserServiceInterface
	follower    Follower
}

func NewProfileHandler(userService service.UserServiceInterface, follower Follower) *ProfileHandler {
	return &ProfileHandler{userService, follower}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, user)
}

func (h *ProfileHandler) Suggested(c *gin.Context) {
	users, err := h.userService.Suggested(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, users)
}

// Follow 切换对目标用户的关注状态
func (h *ProfileHandler) Follow(c *gin.Context) {
	actorID := middleware.CurrentUserID(c)
	state, err := h.follower.ToggleFollow(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	message := "User followed successfully"
	if state == service.Unfollowed {
		message = "User unfollowed successfully"
	}
	errors.HandleSuccess(c, gin.H{
		"message": message,
		"state":   state,
	})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var updateData struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email" binding:"omitempty,email"`
		Username        string `json:"username" binding:"omitempty,username"`
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		Bio             string `json:"bio"`
		Link            string `json:"link"`
		ProfileImg      string `json:"profileImg"`
		CoverImg        string `json:"coverImg"`
	}

	if err := c.ShouldBindJSON(&updateData); err != nil {
		util.Logger.Warn("更新用户资料失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid request data", err))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), service.UpdateProfileInput{
		FullName:        updateData.FullName,
		Email:           updateData.Email,
		Username:        updateData.Username,
		CurrentPassword: updateData.CurrentPassword,
		NewPassword:     updateData.NewPassword,
		Bio:             updateData.Bio,
		Link:            updateData.Link,
		ProfileImg:      updateData.ProfileImg,
		CoverImg:        updateData.CoverImg,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, user)
}
