package service

import (
	"context"
	stderrors "errors"
	"io"
	"strings"

	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/storage"
	"social-backend/internal/util"

	"go.uber.org/zap"
)

// CreatePostInput 发帖参数。图片可以是 data URL，也可以是已打开的上传文件
type CreatePostInput struct {
	Text       string
	ImgDataURL string
	ImgName    string
	ImgReader  io.Reader
}

// FeedService 负责发帖和只读的时间线查询
type FeedService struct {
	users    interfaces.UserRepository
	posts    interfaces.PostRepository
	media    storage.MediaStore
	populate populator
}

func NewFeedService(users interfaces.UserRepository, posts interfaces.PostRepository, media storage.MediaStore) *FeedService {
	return &FeedService{
		users:    users,
		posts:    posts,
		media:    media,
		populate: populator{users: users},
	}
}

// CreatePost 发帖，图片先上传，上传失败则不写帖子
func (s *FeedService) CreatePost(ctx context.Context, actorID string, in CreatePostInput) (*model.Post, error) {
	hasImage := in.ImgDataURL != "" || in.ImgReader != nil
	if strings.TrimSpace(in.Text) == "" && !hasImage {
		return nil, errors.New(errors.ErrEmptyPost, "Post must have text or image")
	}

	author, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if author == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}

	post := &model.Post{UserID: actorID, Text: in.Text}
	if hasImage {
		url, err := s.upload(ctx, in)
		if err != nil {
			return nil, err
		}
		post.Img = url
	}

	if err := s.posts.Create(ctx, post); err != nil {
		util.Logger.Error("创建帖子失败", util.UserID(actorID), zap.Error(err))
		return nil, errors.Store("创建帖子失败", err)
	}
	util.Logger.Info("帖子创建成功", zap.String("post_id", post.ID), util.UserID(actorID))
	return s.populate.post(ctx, post)
}

func (s *FeedService) upload(ctx context.Context, in CreatePostInput) (string, error) {
	if s.media == nil {
		return "", errors.New(errors.ErrMedia, "媒体存储未配置")
	}
	var (
		url string
		err error
	)
	if in.ImgReader != nil {
		url, err = s.media.Upload(ctx, storage.NewObjectName(strings.ToLower(extOf(in.ImgName))), in.ImgReader)
	} else {
		url, err = storage.UploadDataURL(ctx, s.media, in.ImgDataURL)
	}
	if err != nil {
		if stderrors.Is(err, util.ErrInvalidDataURL) {
			return "", errors.New(errors.ErrValidation, "Invalid image")
		}
		return "", errors.Wrap(errors.ErrMedia, "上传图片失败", err)
	}
	return url, nil
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 && !strings.Contains(name[i:], "/") {
		return name[i:]
	}
	return ""
}

// ListAll 全站时间线
func (s *FeedService) ListAll(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	return s.populate.posts(ctx, posts)
}

// ListFollowing 关注的人发的帖子
func (s *FeedService) ListFollowing(ctx context.Context, actorID string) ([]*model.Post, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if actor == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	posts, err := s.posts.ListByAuthors(ctx, actor.Following)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	return s.populate.posts(ctx, posts)
}

// ListLiked 某个用户点赞过的帖子
func (s *FeedService) ListLiked(ctx context.Context, userID string) ([]*model.Post, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	posts, err := s.posts.ListByIDs(ctx, user.LikedPosts)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	return s.populate.posts(ctx, posts)
}

// ListByUsername 某个用户发的帖子
func (s *FeedService) ListByUsername(ctx context.Context, username string) ([]*model.Post, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "User not found")
	}
	posts, err := s.posts.ListByAuthors(ctx, []string{user.ID})
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	return s.populate.posts(ctx, posts)
}
