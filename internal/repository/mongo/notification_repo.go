package mongo

import (
	"context"
	"time"

	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type notificationDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	From      bson.ObjectID `bson:"from"`
	To        bson.ObjectID `bson:"to"`
	Type      string        `bson:"type"`
	Read      bool          `bson:"read"`
	CreatedAt time.Time     `bson:"created_at"`
}

type notificationRepository struct {
	coll *mongo.Collection
}

// NewNotificationRepository 创建通知存储
func NewNotificationRepository(coll *mongo.Collection) interfaces.NotificationRepository {
	return &notificationRepository{coll: coll}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	from, ok := objectID(n.FromID)
	if !ok {
		return interfaces.ErrInvalidField
	}
	to, ok := objectID(n.To)
	if !ok {
		return interfaces.ErrInvalidField
	}
	doc := notificationDocument{
		ID:        bson.NewObjectID(),
		From:      from,
		To:        to,
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	n.ID = doc.ID.Hex()
	n.CreatedAt = doc.CreatedAt
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, userID string) ([]*model.Notification, error) {
	to, ok := objectID(userID)
	if !ok {
		return []*model.Notification{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "to", Value: to}}, newestFirst)
	if err != nil {
		return nil, err
	}
	return decodeNotifications(ctx, cursor)
}

func decodeNotifications(ctx context.Context, cursor *mongo.Cursor) ([]*model.Notification, error) {
	var docs []notificationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*model.Notification, len(docs))
	for i, d := range docs {
		out[i] = &model.Notification{
			ID:        d.ID.Hex(),
			FromID:    d.From.Hex(),
			To:        d.To.Hex(),
			Type:      model.NotificationType(d.Type),
			Read:      d.Read,
			CreatedAt: d.CreatedAt,
		}
	}
	return out, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	to, ok := objectID(userID)
	if !ok {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx, bson.D{{Key: "to", Value: to}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}})
	return err
}

func (r *notificationRepository) DeleteByRecipient(ctx context.Context, userID string) error {
	to, ok := objectID(userID)
	if !ok {
		return nil
	}
	_, err := r.coll.DeleteMany(ctx, bson.D{{Key: "to", Value: to}})
	return err
}
