// Package memory 提供进程内存储实现，用于本地开发和测试
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"

	"github.com/google/uuid"
)

// Store 保存三类文档，所有读写都返回副本
type Store struct {
	mu            sync.RWMutex
	users         map[string]*model.User
	posts         map[string]*postRecord
	notifications map[string]*notificationRecord
	seq           int64
	failures      map[string]*failure
	now           func() time.Time
}

type failure struct {
	skip int
	err  error
}

type postRecord struct {
	post *model.Post
	seq  int64
}

type notificationRecord struct {
	n   *model.Notification
	seq int64
}

// NewStore 创建一个空的内存存储
func NewStore() *Store {
	return &Store{
		users:         make(map[string]*model.User),
		posts:         make(map[string]*postRecord),
		notifications: make(map[string]*notificationRecord),
		failures:      make(map[string]*failure),
		now:           time.Now,
	}
}

// FailNext 让下一次指定操作返回 err，例如 "users.AddToSet"
func (s *Store) FailNext(op string, err error) {
	s.FailNth(op, 1, err)
}

// FailNth 让第 n 次（从 1 开始）指定操作返回 err，之前的调用正常执行
func (s *Store) FailNth(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failure{skip: n - 1, err: err}
}

// SetClock 替换时间来源
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) takeFailure(op string) error {
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(s.failures, op)
	return f.err
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// Users 返回身份存储视图
func (s *Store) Users() interfaces.UserRepository { return &userRepository{s} }

// Posts 返回内容存储视图
func (s *Store) Posts() interfaces.PostRepository { return &postRepository{s} }

// Notifications 返回通知存储视图
func (s *Store) Notifications() interfaces.NotificationRepository {
	return &notificationRepository{s}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Followers = copyStrings(u.Followers)
	c.Following = copyStrings(u.Following)
	c.LikedPosts = copyStrings(u.LikedPosts)
	return &c
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.User = nil
	c.Likes = copyStrings(p.Likes)
	c.Comments = make([]model.Comment, len(p.Comments))
	for i, cm := range p.Comments {
		cm.User = nil
		c.Comments[i] = cm
	}
	return &c
}

func addToSet(set []string, v string) []string {
	if model.Contains(set, v) {
		return set
	}
	return append(set, v)
}

func pull(set []string, v string) []string {
	out := set[:0]
	for _, x := range set {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// ---- users ----

type userRepository struct{ s *Store }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("users.Create"); err != nil {
		return err
	}
	for _, u := range s.users {
		if u.Username == user.Username || u.Email == user.Email {
			return interfaces.ErrDuplicate
		}
	}
	now := s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Normalize()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("users.FindByID"); err != nil {
		return nil, err
	}
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *userRepository) findBy(match func(*model.User) bool) *model.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email }), nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Username == username }), nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("users.Update"); err != nil {
		return err
	}
	existing, ok := s.users[user.ID]
	if !ok {
		return nil
	}
	for id, u := range s.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return interfaces.ErrDuplicate
		}
	}
	existing.Username = user.Username
	existing.FullName = user.FullName
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.ProfileImg = user.ProfileImg
	existing.CoverImg = user.CoverImg
	existing.Bio = user.Bio
	existing.Link = user.Link
	existing.UpdatedAt = s.now()
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r *userRepository) AddToSet(ctx context.Context, userID string, field model.UserSetField, ref string) error {
	return r.mutateSet(userID, field, "users.AddToSet", func(set []string) []string { return addToSet(set, ref) })
}

func (r *userRepository) RemoveFromSet(ctx context.Context, userID string, field model.UserSetField, ref string) error {
	return r.mutateSet(userID, field, "users.RemoveFromSet", func(set []string) []string { return pull(set, ref) })
}

func (r *userRepository) mutateSet(userID string, field model.UserSetField, op string, fn func([]string) []string) error {
	if !field.Valid() {
		return interfaces.ErrInvalidField
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(op); err != nil {
		return err
	}
	u, ok := s.users[userID]
	if !ok {
		return nil
	}
	switch field {
	case model.FieldFollowers:
		u.Followers = fn(u.Followers)
	case model.FieldFollowing:
		u.Following = fn(u.Following)
	case model.FieldLikedPosts:
		u.LikedPosts = fn(u.LikedPosts)
	}
	return nil
}

func (r *userRepository) Sample(ctx context.Context, excludeID string, size int) ([]*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, size)
	// map 的遍历顺序本身是随机的
	for id, u := range s.users {
		if len(users) >= size {
			break
		}
		if id == excludeID {
			continue
		}
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (r *userRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *userRepository) Ping(ctx context.Context) error { return nil }

// ---- posts ----

type postRepository struct{ s *Store }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("posts.Create"); err != nil {
		return err
	}
	now := s.now()
	post.ID = newID()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Normalize()
	s.posts[post.ID] = &postRecord{post: clonePost(post), seq: s.nextSeq()}
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("posts.FindByID"); err != nil {
		return nil, err
	}
	if rec, ok := s.posts[id]; ok {
		return clonePost(rec.post), nil
	}
	return nil, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("posts.Delete"); err != nil {
		return err
	}
	delete(s.posts, id)
	return nil
}

func (r *postRepository) mutate(op, postID string, fn func(p *model.Post)) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(op); err != nil {
		return err
	}
	if rec, ok := s.posts[postID]; ok {
		fn(rec.post)
		rec.post.UpdatedAt = s.now()
	}
	return nil
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID string) error {
	return r.mutate("posts.AddLike", postID, func(p *model.Post) { p.Likes = addToSet(p.Likes, userID) })
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.mutate("posts.RemoveLike", postID, func(p *model.Post) { p.Likes = pull(p.Likes, userID) })
}

func (r *postRepository) AppendComment(ctx context.Context, postID string, comment *model.Comment) error {
	return r.mutate("posts.AppendComment", postID, func(p *model.Post) {
		comment.ID = newID()
		if comment.CreatedAt.IsZero() {
			comment.CreatedAt = r.s.now()
		}
		c := *comment
		c.User = nil
		p.Comments = append(p.Comments, c)
	})
}

func (r *postRepository) list(match func(*model.Post) bool) []*model.Post {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*postRecord, 0)
	for _, rec := range s.posts {
		if match(rec.post) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.seq > b.seq
	})
	posts := make([]*model.Post, len(recs))
	for i, rec := range recs {
		posts[i] = clonePost(rec.post)
	}
	return posts
}

func (r *postRepository) ListAll(ctx context.Context) ([]*model.Post, error) {
	return r.list(func(*model.Post) bool { return true }), nil
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	return r.list(func(p *model.Post) bool { return model.Contains(authorIDs, p.UserID) }), nil
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	return r.list(func(p *model.Post) bool { return model.Contains(ids, p.ID) }), nil
}

// ---- notifications ----

type notificationRepository struct{ s *Store }

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("notifications.Create"); err != nil {
		return err
	}
	n.ID = newID()
	n.CreatedAt = s.now()
	c := *n
	c.From = nil
	s.notifications[n.ID] = &notificationRecord{n: &c, seq: s.nextSeq()}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*model.Notification, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*notificationRecord, 0)
	for _, rec := range s.notifications {
		if rec.n.To == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]*model.Notification, len(recs))
	for i, rec := range recs {
		c := *rec.n
		out[i] = &c
	}
	return out, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("notifications.MarkAllRead"); err != nil {
		return err
	}
	for _, rec := range s.notifications {
		if rec.n.To == userID {
			rec.n.Read = true
		}
	}
	return nil
}

func (r *notificationRepository) DeleteByRecipient(ctx context.Context, userID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("notifications.DeleteByRecipient"); err != nil {
		return err
	}
	for id, rec := range s.notifications {
		if rec.n.To == userID {
			delete(s.notifications, id)
		}
	}
	return nil
}
