package service

import (
	"context"

	"social-backend/internal/errors"
	"social-backend/internal/metrics"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/util"

	"go.uber.org/zap"
)

// Edge 一条单边关系
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ReconcileReport 对账结果。
// 关注以 target.followers 为准，点赞以 post.likes 为准，因为它们总是先写。
type ReconcileReport struct {
	MissingFollowing  []Edge `json:"missingFollowing"`  // 对方有粉丝记录，操作者缺关注记录
	StaleFollowing    []Edge `json:"staleFollowing"`    // 操作者有关注记录，对方没有粉丝记录
	MissingLikedPosts []Edge `json:"missingLikedPosts"` // 帖子有点赞，用户缺 likedPosts
	StaleLikedPosts   []Edge `json:"staleLikedPosts"`   // 用户有 likedPosts，帖子没有点赞
	DanglingLikes     []Edge `json:"danglingLikes"`     // likedPosts 指向已删除的帖子
	Repaired          int    `json:"repaired"`
}

// Inconsistencies 返回可修复的单边关系数量
func (r *ReconcileReport) Inconsistencies() int {
	return len(r.MissingFollowing) + len(r.StaleFollowing) + len(r.MissingLikedPosts) + len(r.StaleLikedPosts)
}

// Reconciler 扫描成对写入中途失败留下的单边关系
type Reconciler struct {
	users interfaces.UserRepository
	posts interfaces.PostRepository
}

func NewReconciler(users interfaces.UserRepository, posts interfaces.PostRepository) *Reconciler {
	return &Reconciler{users: users, posts: posts}
}

// Run 执行一次对账，repair 为 true 时按先写的一侧修复另一侧。
// 指向已删除帖子的 likedPosts 只报告不修复。
func (r *Reconciler) Run(ctx context.Context, repair bool) (*ReconcileReport, error) {
	users, err := r.users.FindAll(ctx)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	posts, err := r.posts.ListAll(ctx)
	if err != nil {
		return nil, errors.Store("查询帖子失败", err)
	}

	usersByID := make(map[string]*model.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	postsByID := make(map[string]*model.Post, len(posts))
	for _, p := range posts {
		postsByID[p.ID] = p
	}

	report := &ReconcileReport{
		MissingFollowing:  []Edge{},
		StaleFollowing:    []Edge{},
		MissingLikedPosts: []Edge{},
		StaleLikedPosts:   []Edge{},
		DanglingLikes:     []Edge{},
	}

	for _, target := range users {
		for _, followerID := range target.Followers {
			follower, ok := usersByID[followerID]
			if ok && !follower.IsFollowing(target.ID) {
				report.MissingFollowing = append(report.MissingFollowing, Edge{From: followerID, To: target.ID})
			}
		}
	}
	for _, actor := range users {
		for _, targetID := range actor.Following {
			target, ok := usersByID[targetID]
			if !ok || !target.HasFollower(actor.ID) {
				report.StaleFollowing = append(report.StaleFollowing, Edge{From: actor.ID, To: targetID})
			}
		}
		for _, postID := range actor.LikedPosts {
			post, ok := postsByID[postID]
			switch {
			case !ok:
				report.DanglingLikes = append(report.DanglingLikes, Edge{From: actor.ID, To: postID})
			case !post.LikedBy(actor.ID):
				report.StaleLikedPosts = append(report.StaleLikedPosts, Edge{From: actor.ID, To: postID})
			}
		}
	}
	for _, post := range posts {
		for _, userID := range post.Likes {
			user, ok := usersByID[userID]
			if ok && !user.HasLiked(post.ID) {
				report.MissingLikedPosts = append(report.MissingLikedPosts, Edge{From: userID, To: post.ID})
			}
		}
	}

	metrics.SetReconcileFindings("missing_following", len(report.MissingFollowing))
	metrics.SetReconcileFindings("stale_following", len(report.StaleFollowing))
	metrics.SetReconcileFindings("missing_liked_posts", len(report.MissingLikedPosts))
	metrics.SetReconcileFindings("stale_liked_posts", len(report.StaleLikedPosts))
	metrics.SetReconcileFindings("dangling_likes", len(report.DanglingLikes))

	util.Logger.Info("对账完成",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
		zap.Int("inconsistencies", report.Inconsistencies()),
		zap.Int("dangling_likes", len(report.DanglingLikes)))

	if !repair {
		return report, nil
	}
	if err := r.repair(ctx, report); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reconciler) repair(ctx context.Context, report *ReconcileReport) error {
	steps := []struct {
		edges []Edge
		apply func(Edge) error
	}{
		{report.MissingFollowing, func(e Edge) error {
			return r.users.AddToSet(ctx, e.From, model.FieldFollowing, e.To)
		}},
		{report.StaleFollowing, func(e Edge) error {
			return r.users.RemoveFromSet(ctx, e.From, model.FieldFollowing, e.To)
		}},
		{report.MissingLikedPosts, func(e Edge) error {
			return r.users.AddToSet(ctx, e.From, model.FieldLikedPosts, e.To)
		}},
		{report.StaleLikedPosts, func(e Edge) error {
			return r.users.RemoveFromSet(ctx, e.From, model.FieldLikedPosts, e.To)
		}},
	}
	for _, step := range steps {
		for _, edge := range step.edges {
			if err := step.apply(edge); err != nil {
				util.Logger.Error("修复单边关系失败", zap.String("from", edge.From), zap.String("to", edge.To), zap.Error(err))
				return errors.Store("修复单边关系失败", err)
			}
			report.Repaired++
		}
	}
	util.Logger.Info("单边关系已修复", zap.Int("repaired", report.Repaired))
	return nil
}
