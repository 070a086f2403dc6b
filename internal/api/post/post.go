package post

import (
	"strings"

	"social-backend/internal/errors"
	"social-backend/internal/middleware"
	"social-backend/internal/model"
	"social-backend/internal/service"
	"social-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PostHandler struct {
	feedService *service.FeedService
	engine      *service.EngagementEngine
}

func NewPostHandler(feedService *service.FeedService, engine *service.EngagementEngine) *PostHandler {
	return &PostHandler{
		feedService: feedService,
		engine:      engine,
	}
}

// CreatePost 支持 JSON 里的 data URL 图片，也支持 multipart 表单的 img 文件
func (h *PostHandler) CreatePost(c *gin.Context) {
	actorID := middleware.CurrentUserID(c)
	var input service.CreatePostInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		input.Text = c.PostForm("text")
		if file, err := c.FormFile("img"); err == nil {
			src, err := file.Open()
			if err != nil {
				util.Logger.Error("无法读取上传文件", zap.Error(err))
				errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid image", err))
				return
			}
			defer src.Close()
			input.ImgName = file.Filename
			input.ImgReader = src
		}
	} else {
		var postData struct {
			Text string `json:"text"`
			Img  string `json:"img"`
		}
		if err := c.ShouldBindJSON(&postData); err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid request data", err))
			return
		}
		input.Text = postData.Text
		input.ImgDataURL = postData.Img
	}

	post, err := h.feedService.CreatePost(c.Request.Context(), actorID, input)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, post)
}

func (h *PostHandler) ListAll(c *gin.Context) {
	posts, err := h.feedService.ListAll(c.Request.Context())
	respondPosts(c, posts, err)
}

func (h *PostHandler) ListFollowing(c *gin.Context) {
	posts, err := h.feedService.ListFollowing(c.Request.Context(), middleware.CurrentUserID(c))
	respondPosts(c, posts, err)
}

func (h *PostHandler) ListLiked(c *gin.Context) {
	posts, err := h.feedService.ListLiked(c.Request.Context(), c.Param("id"))
	respondPosts(c, posts, err)
}

func (h *PostHandler) ListByUser(c *gin.Context) {
	posts, err := h.feedService.ListByUsername(c.Request.Context(), c.Param("username"))
	respondPosts(c, posts, err)
}

// LikePost 切换点赞，点赞和取消点赞返回同样的结构
func (h *PostHandler) LikePost(c *gin.Context) {
	result, err := h.engine.ToggleLike(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, result)
}

func (h *PostHandler) CommentOnPost(c *gin.Context) {
	var commentData struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&commentData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "Invalid request data", err))
		return
	}

	post, err := h.engine.AddComment(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), commentData.Text)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.engine.DeletePost(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleMessage(c, "Post deleted successfully")
}

func respondPosts(c *gin.Context, posts []*model.Post, err error) {
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	errors.HandleSuccess(c, posts)
}
