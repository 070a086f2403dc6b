package model

import "time"

// Post 表示内容存储中的帖子文档，评论内嵌在帖子中
type Post struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"-"`
	User      *User     `json:"user"`
	Text      string    `json:"text,omitempty"`
	Img       string    `json:"img,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Comment 是帖子内嵌的评论，没有独立于帖子的身份
type Comment struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"-"`
	User      *User     `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikedBy 判断 userID 是否点赞过该帖子
func (p *Post) LikedBy(userID string) bool {
	return Contains(p.Likes, userID)
}

// Normalize 保证集合字段序列化为 [] 而不是 null
func (p *Post) Normalize() *Post {
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return p
}

// NotificationType 通知类型
type NotificationType string

const (
	NotificationFollow  NotificationType = "follow"
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
)

// Notification 表示通知文档
type Notification struct {
	ID        string           `json:"_id"`
	FromID    string           `json:"-"`
	From      *User            `json:"from"`
	To        string           `json:"to"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}
