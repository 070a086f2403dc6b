package service

import (
	"context"
	"strings"

	"social-backend/internal/errors"
	"social-backend/internal/metrics"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/storage"
	"social-backend/internal/util"

	"go.uber.org/zap"
)

// Operation 互动操作类型
type Operation string

const (
	OpFollow  Operation = "follow"
	OpLike    Operation = "like"
	OpComment Operation = "comment"
)

// FollowState 关注操作完成后的关系状态
type FollowState string

const (
	Followed   FollowState = "followed"
	Unfollowed FollowState = "unfollowed"
)

// LikeResult 点赞和取消点赞统一返回新的状态与完整点赞列表
type LikeResult struct {
	Liked bool     `json:"liked"`
	Likes []string `json:"likes"`
}

// engagementEvent 一次已生效的互动，供通知规则取接收者
type engagementEvent struct {
	Actor      string
	TargetUser string
	PostAuthor string
}

type notificationRule struct {
	Kind      model.NotificationType
	Recipient func(engagementEvent) string
}

// notificationRules 是"哪些操作产生通知"的唯一来源。
// 只有进入关注、点赞状态才会查表；评论不产生通知。
var notificationRules = map[Operation]notificationRule{
	OpFollow: {
		Kind:      model.NotificationFollow,
		Recipient: func(e engagementEvent) string { return e.TargetUser },
	},
	OpLike: {
		Kind:      model.NotificationLike,
		Recipient: func(e engagementEvent) string { return e.PostAuthor },
	},
}

// EngagementEngine 负责关注、点赞、评论、删帖这些跨文档的成对写入。
// 每个操作的写入顺序固定：对方文档、操作者文档、最后才是通知。
// 中途失败不回滚也不重试，已完成的步骤保留，由 Reconciler 修复单边关系。
type EngagementEngine struct {
	users         interfaces.UserRepository
	posts         interfaces.PostRepository
	notifications interfaces.NotificationRepository
	media         storage.MediaStore
	populate      populator
}

func NewEngagementEngine(
	users interfaces.UserRepository,
	posts interfaces.PostRepository,
	notifications interfaces.NotificationRepository,
	media storage.MediaStore,
) *EngagementEngine {
	return &EngagementEngine{
		users:         users,
		posts:         posts,
		notifications: notifications,
		media:         media,
		populate:      populator{users: users},
	}
}

// ToggleFollow 切换 actor 对 target 的关注状态
func (e *EngagementEngine) ToggleFollow(ctx context.Context, actorID, targetID string) (FollowState, error) {
	if actorID == targetID {
		metrics.RecordEngagement(string(OpFollow), "rejected")
		return "", errors.New(errors.ErrSelfReference, "You can't follow/unfollow yourself")
	}

	target, err := e.users.FindByID(ctx, targetID)
	if err != nil {
		return "", errors.Store("查询用户失败", err)
	}
	actor, err := e.users.FindByID(ctx, actorID)
	if err != nil {
		return "", errors.Store("查询用户失败", err)
	}
	if target == nil || actor == nil {
		return "", errors.New(errors.ErrUserNotFound, "User not found")
	}

	log := util.Logger.With(zap.String("actor", actorID), zap.String("target", targetID))

	if actor.IsFollowing(targetID) {
		if err := e.users.RemoveFromSet(ctx, targetID, model.FieldFollowers, actorID); err != nil {
			return "", e.stepFailed(log, OpFollow, "移除粉丝失败", err)
		}
		if err := e.users.RemoveFromSet(ctx, actorID, model.FieldFollowing, targetID); err != nil {
			return "", e.stepFailed(log, OpFollow, "移除关注失败", err)
		}
		log.Info("取消关注成功")
		metrics.RecordEngagement(string(OpFollow), string(Unfollowed))
		return Unfollowed, nil
	}

	if err := e.users.AddToSet(ctx, targetID, model.FieldFollowers, actorID); err != nil {
		return "", e.stepFailed(log, OpFollow, "添加粉丝失败", err)
	}
	if err := e.users.AddToSet(ctx, actorID, model.FieldFollowing, targetID); err != nil {
		return "", e.stepFailed(log, OpFollow, "添加关注失败", err)
	}
	if err := e.notify(ctx, OpFollow, engagementEvent{Actor: actorID, TargetUser: targetID}); err != nil {
		return "", e.stepFailed(log, OpFollow, "创建通知失败", err)
	}
	log.Info("关注成功")
	metrics.RecordEngagement(string(OpFollow), string(Followed))
	return Followed, nil
}

// ToggleLike 切换 actor 对帖子的点赞状态
func (e *EngagementEngine) ToggleLike(ctx context.Context, actorID, postID string) (*LikeResult, error) {
	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "Post not found")
	}

	log := util.Logger.With(zap.String("actor", actorID), zap.String("post_id", postID))

	if post.LikedBy(actorID) {
		if err := e.posts.RemoveLike(ctx, postID, actorID); err != nil {
			return nil, e.stepFailed(log, OpLike, "取消点赞失败", err)
		}
		if err := e.users.RemoveFromSet(ctx, actorID, model.FieldLikedPosts, postID); err != nil {
			return nil, e.stepFailed(log, OpLike, "更新用户点赞列表失败", err)
		}
		log.Info("取消点赞成功")
		metrics.RecordEngagement(string(OpLike), "unliked")
		return e.likeResult(ctx, postID, false, without(post.Likes, actorID))
	}

	if err := e.posts.AddLike(ctx, postID, actorID); err != nil {
		return nil, e.stepFailed(log, OpLike, "点赞失败", err)
	}
	if err := e.users.AddToSet(ctx, actorID, model.FieldLikedPosts, postID); err != nil {
		return nil, e.stepFailed(log, OpLike, "更新用户点赞列表失败", err)
	}
	if err := e.notify(ctx, OpLike, engagementEvent{Actor: actorID, PostAuthor: post.UserID}); err != nil {
		return nil, e.stepFailed(log, OpLike, "创建通知失败", err)
	}
	log.Info("点赞成功")
	metrics.RecordEngagement(string(OpLike), "liked")
	return e.likeResult(ctx, postID, true, append(without(post.Likes, actorID), actorID))
}

// likeResult 写入完成后重新读取帖子，返回包含并发点赞在内的最新列表；
// 帖子已被删除时退回本地推算的结果
func (e *EngagementEngine) likeResult(ctx context.Context, postID string, liked bool, fallback []string) (*LikeResult, error) {
	updated, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	likes := fallback
	if updated != nil {
		likes = updated.Likes
	}
	if likes == nil {
		likes = []string{}
	}
	return &LikeResult{Liked: liked, Likes: likes}, nil
}

// AddComment 在帖子末尾追加评论，返回填充了作者信息的完整帖子
func (e *EngagementEngine) AddComment(ctx context.Context, actorID, postID, text string) (*model.Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrEmptyPost, "Text field is required")
	}
	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "Post not found")
	}

	comment := &model.Comment{UserID: actorID, Text: text}
	if err := e.posts.AppendComment(ctx, postID, comment); err != nil {
		return nil, e.stepFailed(util.Logger, OpComment, "添加评论失败", err)
	}
	if err := e.notify(ctx, OpComment, engagementEvent{Actor: actorID, PostAuthor: post.UserID}); err != nil {
		return nil, e.stepFailed(util.Logger, OpComment, "创建通知失败", err)
	}
	metrics.RecordEngagement(string(OpComment), "added")

	updated, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}
	if updated == nil {
		return nil, errors.New(errors.ErrPostNotFound, "Post not found")
	}
	return e.populate.post(ctx, updated)
}

// DeletePost 作者删除自己的帖子；图片尽力删除，失败只记日志。
// 其他用户的 likedPosts 和相关通知保持不变。
func (e *EngagementEngine) DeletePost(ctx context.Context, actorID, postID string) error {
	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return errors.Store("查询帖子失败", err)
	}
	if post == nil {
		return errors.New(errors.ErrPostNotFound, "Post not found")
	}
	if post.UserID != actorID {
		metrics.RecordEngagement("delete", "rejected")
		return errors.New(errors.ErrNotAuthor, "You are not authorized to delete this post")
	}

	if post.Img != "" && e.media != nil {
		if err := e.media.Destroy(ctx, util.MediaToken(post.Img)); err != nil {
			util.Logger.Warn("删除帖子图片失败", zap.String("post_id", postID), zap.Error(err))
		}
	}
	if err := e.posts.Delete(ctx, postID); err != nil {
		return errors.Store("删除帖子失败", err)
	}
	util.Logger.Info("帖子已删除", zap.String("post_id", postID), util.UserID(actorID))
	metrics.RecordEngagement("delete", "deleted")
	return nil
}

// notify 查表生成通知，不给自己发通知
func (e *EngagementEngine) notify(ctx context.Context, op Operation, ev engagementEvent) error {
	rule, ok := notificationRules[op]
	if !ok {
		return nil
	}
	recipient := rule.Recipient(ev)
	if recipient == "" || recipient == ev.Actor {
		return nil
	}
	if err := e.notifications.Create(ctx, &model.Notification{
		FromID: ev.Actor,
		To:     recipient,
		Type:   rule.Kind,
	}); err != nil {
		return err
	}
	metrics.RecordNotification(string(rule.Kind))
	return nil
}

func (e *EngagementEngine) stepFailed(log *zap.Logger, op Operation, msg string, err error) error {
	log.Error(msg, zap.String("operation", string(op)), zap.Error(err))
	metrics.RecordEngagement(string(op), "failed")
	return errors.Store(msg, err)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
