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

const userColumns = `id, username, full_name, email, password, profile_img, cover_img, bio, link, created_at, updated_at`

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB) interfaces.UserRepository {
	return &userRepository{db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Username, &user.FullName, &user.Email, &user.PasswordHash,
		&user.ProfileImg, &user.CoverImg, &user.Bio, &user.Link, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user.Normalize(), nil
}

// Create 创建一个新用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	id := newID()
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		id, user.Username, user.FullName, user.Email, user.PasswordHash,
		user.ProfileImg, user.CoverImg, user.Bio, user.Link, now, now)
	if err != nil {
		if isDuplicate(err) {
			return interfaces.ErrDuplicate
		}
		util.Logger.Error("创建用户失败", zap.Error(err))
		return err
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Normalize()
	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, arg interface{}) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` = ?`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadRelations(ctx, []*model.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) query(ctx context.Context, query string, args ...interface{}) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByIDs 批量查找用户
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}
	in, args := inClause(ids)
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE id IN `+in, args...)
}

// FindAll 返回全部用户，供对账使用
func (r *userRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// Sample 随机抽取用户
func (r *userRepository) Sample(ctx context.Context, excludeID string, size int) ([]*model.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE id <> ? ORDER BY RAND() LIMIT ?`, excludeID, size)
}

// loadRelations 为一批用户填充集合字段
func (r *userRepository) loadRelations(ctx context.Context, users []*model.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[string]*model.User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	in, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, relation, ref_id FROM user_relations WHERE user_id IN `+in+` ORDER BY created_at, ref_id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var userID, relation, refID string
		if err := rows.Scan(&userID, &relation, &refID); err != nil {
			return err
		}
		u, ok := byID[userID]
		if !ok {
			continue
		}
		switch model.UserSetField(relation) {
		case model.FieldFollowers:
			u.Followers = append(u.Followers, refID)
		case model.FieldFollowing:
			u.Following = append(u.Following, refID)
		case model.FieldLikedPosts:
			u.LikedPosts = append(u.LikedPosts, refID)
		}
	}
	return rows.Err()
}

// Update 更新用户资料与凭据
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = ?, full_name = ?, email = ?, password = ?, profile_img = ?, cover_img = ?, bio = ?, link = ?, updated_at = ?
		WHERE id = ?`,
		user.Username, user.FullName, user.Email, user.PasswordHash, user.ProfileImg, user.CoverImg,
		user.Bio, user.Link, now, user.ID)
	if err != nil {
		if isDuplicate(err) {
			return interfaces.ErrDuplicate
		}
		return err
	}
	user.UpdatedAt = now
	return nil
}

// AddToSet 插入关联，已存在时忽略
func (r *userRepository) AddToSet(ctx context.Context, userID string, field model.UserSetField, ref string) error {
	if !field.Valid() {
		return interfaces.ErrInvalidField
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO user_relations (user_id, relation, ref_id, created_at)
		SELECT id, ?, ?, ? FROM users WHERE id = ?`,
		string(field), ref, time.Now().UTC(), userID)
	return err
}

// RemoveFromSet 删除关联
func (r *userRepository) RemoveFromSet(ctx context.Context, userID string, field model.UserSetField, ref string) error {
	if !field.Valid() {
		return interfaces.ErrInvalidField
	}
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_relations WHERE user_id = ? AND relation = ? AND ref_id = ?`,
		userID, string(field), ref)
	return err
}

func (r *userRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
