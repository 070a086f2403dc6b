// Package mongo 是基于 MongoDB 的文档存储实现
package mongo

import (
	"context"
	"fmt"

	"social-backend/internal/repository/interfaces"
	"social-backend/internal/util"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const (
	usersCollection         = "users"
	postsCollection         = "posts"
	notificationsCollection = "notifications"
)

// Store 持有 MongoDB 连接以及三个集合
type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	users         *mongo.Collection
	posts         *mongo.Collection
	notifications *mongo.Collection
}

// Open 连接 MongoDB 并返回存储实例
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	db := client.Database(database)
	util.Logger.Info("MongoDB 连接成功", zap.String("database", database))
	return &Store{
		client:        client,
		db:            db,
		users:         db.Collection(usersCollection),
		posts:         db.Collection(postsCollection),
		notifications: db.Collection(notificationsCollection),
	}, nil
}

// EnsureIndexes 创建唯一索引和查询索引
func (s *Store) EnsureIndexes(ctx context.Context) error {
	collections := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		postsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{{Key: "to", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for name, indexes := range collections {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", name, err)
		}
	}
	return nil
}

// Close 断开连接
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Users 返回身份存储
func (s *Store) Users() interfaces.UserRepository { return NewUserRepository(s.users) }

// Posts 返回内容存储
func (s *Store) Posts() interfaces.PostRepository { return NewPostRepository(s.posts) }

// Notifications 返回通知存储
func (s *Store) Notifications() interfaces.NotificationRepository {
	return NewNotificationRepository(s.notifications)
}

// objectID 解析十六进制 ID，格式非法时 ok 为 false
func objectID(id string) (bson.ObjectID, bool) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return oid, true
}

// objectIDs 丢弃格式非法的 ID
func objectIDs(ids []string) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []bson.ObjectID) []string {
	out := make([]string, len(oids))
	for i, oid := range oids {
		out[i] = oid.Hex()
	}
	return out
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
