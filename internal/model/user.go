package model

import "time"

// User 表示身份存储中的用户文档
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // 密码哈希不应在JSON中暴露
	ProfileImg   string    `json:"profileImg"`
	CoverImg     string    `json:"coverImg"`
	Bio          string    `json:"bio"`
	Link         string    `json:"link"`
	Followers    []string  `json:"followers"`
	Following    []string  `json:"following"`
	LikedPosts   []string  `json:"likedPosts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSetField 用户文档上的集合字段
type UserSetField string

const (
	FieldFollowers  UserSetField = "followers"
	FieldFollowing  UserSetField = "following"
	FieldLikedPosts UserSetField = "likedPosts"
)

// Valid 判断字段名是否合法
func (f UserSetField) Valid() bool {
	switch f {
	case FieldFollowers, FieldFollowing, FieldLikedPosts:
		return true
	}
	return false
}

// IsFollowing 判断是否已关注 targetID
func (u *User) IsFollowing(targetID string) bool {
	return Contains(u.Following, targetID)
}

// HasFollower 判断 followerID 是否在粉丝列表中
func (u *User) HasFollower(followerID string) bool {
	return Contains(u.Followers, followerID)
}

// HasLiked 判断是否点赞过 postID
func (u *User) HasLiked(postID string) bool {
	return Contains(u.LikedPosts, postID)
}

// Normalize 保证集合字段序列化为 [] 而不是 null
func (u *User) Normalize() *User {
	if u.Followers == nil {
		u.Followers = []string{}
	}
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.LikedPosts == nil {
		u.LikedPosts = []string{}
	}
	return u
}

// Contains 判断 ids 中是否包含 id
func Contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
