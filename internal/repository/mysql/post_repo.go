package mysql

import (
	"context"
	"database/sql"
	"time"

	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/util"

	"go.uber.org/zap"
)

const postColumns = `id, user_id, text, img, created_at, updated_at`

type postRepository struct {
	db *sql.DB
}

// NewPostRepository 创建内容存储
func NewPostRepository(db *sql.DB) interfaces.PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, post.UserID, post.Text, post.Img, now, now)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return err
	}
	post.ID = id
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Normalize()
	util.Logger.Info("帖子创建成功", zap.String("post_id", post.ID))
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	posts, err := r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return posts[0], nil
}

// Delete 删除帖子及其点赞、评论行
func (r *postRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM post_likes WHERE post_id = ?`,
		`DELETE FROM post_comments WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			util.Logger.Error("删除帖子失败", zap.String("post_id", id), zap.Error(err))
			return err
		}
	}
	return tx.Commit()
}

func (r *postRepository) touch(ctx context.Context, postID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET updated_at = ? WHERE id = ?`, time.Now().UTC(), postID)
	return err
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO post_likes (post_id, user_id, created_at)
		SELECT id, ?, ? FROM posts WHERE id = ?`,
		userID, time.Now().UTC(), postID)
	if err != nil {
		return err
	}
	return r.touch(ctx, postID)
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID); err != nil {
		return err
	}
	return r.touch(ctx, postID)
}

func (r *postRepository) AppendComment(ctx context.Context, postID string, comment *model.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	id := newID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO post_comments (id, post_id, user_id, text, created_at)
		SELECT ?, id, ?, ?, ? FROM posts WHERE id = ?`,
		id, comment.UserID, comment.Text, comment.CreatedAt, postID)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err))
		return err
	}
	comment.ID = id
	return r.touch(ctx, postID)
}

func (r *postRepository) ListAll(ctx context.Context) ([]*model.Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts ORDER BY created_at DESC, seq DESC`)
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return []*model.Post{}, nil
	}
	in, args := inClause(authorIDs)
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE user_id IN `+in+` ORDER BY created_at DESC, seq DESC`, args...)
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}
	in, args := inClause(ids)
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE id IN `+in+` ORDER BY created_at DESC, seq DESC`, args...)
}

func (r *postRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Img, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p.Normalize())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// loadChildren 批量填充点赞和评论
func (r *postRepository) loadChildren(ctx context.Context, posts []*model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[string]*model.Post, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	in, args := inClause(ids)

	likeRows, err := r.db.QueryContext(ctx,
		`SELECT post_id, user_id FROM post_likes WHERE post_id IN `+in+` ORDER BY created_at, user_id`, args...)
	if err != nil {
		return err
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var postID, userID string
		if err := likeRows.Scan(&postID, &userID); err != nil {
			return err
		}
		if p, ok := byID[postID]; ok {
			p.Likes = append(p.Likes, userID)
		}
	}
	if err := likeRows.Err(); err != nil {
		return err
	}

	commentRows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, text, created_at FROM post_comments WHERE post_id IN `+in+` ORDER BY seq`, args...)
	if err != nil {
		return err
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var c model.Comment
		var postID string
		if err := commentRows.Scan(&c.ID, &postID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return err
		}
		if p, ok := byID[postID]; ok {
			p.Comments = append(p.Comments, c)
		}
	}
	return commentRows.Err()
}
