package service

import (
	"context"

	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
)

// publicUser 返回去掉凭据的用户副本
func publicUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return c.Normalize()
}

// populator 为帖子和通知填充作者信息
type populator struct {
	users interfaces.UserRepository
}

func (p populator) lookup(ctx context.Context, ids []string) (map[string]*model.User, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	byID := make(map[string]*model.User, len(unique))
	if len(unique) == 0 {
		return byID, nil
	}
	users, err := p.users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, errors.Store("查询用户失败", err)
	}
	for _, u := range users {
		byID[u.ID] = publicUser(u)
	}
	return byID, nil
}

// posts 填充帖子作者和评论作者
func (p populator) posts(ctx context.Context, posts []*model.Post) ([]*model.Post, error) {
	ids := make([]string, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.UserID)
		for _, c := range post.Comments {
			ids = append(ids, c.UserID)
		}
	}
	byID, err := p.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, post := range posts {
		post.Normalize()
		post.User = byID[post.UserID]
		for i := range post.Comments {
			post.Comments[i].User = byID[post.Comments[i].UserID]
		}
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return posts, nil
}

func (p populator) post(ctx context.Context, post *model.Post) (*model.Post, error) {
	out, err := p.posts(ctx, []*model.Post{post})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// notifications 填充通知发送者
func (p populator) notifications(ctx context.Context, list []*model.Notification) ([]*model.Notification, error) {
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.FromID)
	}
	byID, err := p.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, n := range list {
		n.From = byID[n.FromID]
	}
	if list == nil {
		list = []*model.Notification{}
	}
	return list, nil
}
