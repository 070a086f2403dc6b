package mongo

import (
	"context"
	"errors"
	"time"

	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type commentDocument struct {
	ID        bson.ObjectID `bson:"_id"`
	UserID    bson.ObjectID `bson:"user"`
	Text      string        `bson:"text"`
	CreatedAt time.Time     `bson:"created_at"`
}

type postDocument struct {
	ID        bson.ObjectID     `bson:"_id"`
	UserID    bson.ObjectID     `bson:"user"`
	Text      string            `bson:"text,omitempty"`
	Img       string            `bson:"img,omitempty"`
	Likes     []bson.ObjectID   `bson:"likes"`
	Comments  []commentDocument `bson:"comments"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

func (d *postDocument) toModel() *model.Post {
	p := &model.Post{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Text:      d.Text,
		Img:       d.Img,
		Likes:     hexIDs(d.Likes),
		Comments:  make([]model.Comment, len(d.Comments)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for i, c := range d.Comments {
		p.Comments[i] = model.Comment{
			ID:        c.ID.Hex(),
			UserID:    c.UserID.Hex(),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		}
	}
	return p
}

type postRepository struct {
	coll *mongo.Collection
}

// NewPostRepository 创建内容存储
func NewPostRepository(coll *mongo.Collection) interfaces.PostRepository {
	return &postRepository{coll: coll}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	author, ok := objectID(post.UserID)
	if !ok {
		return interfaces.ErrInvalidField
	}
	now := time.Now().UTC()
	doc := postDocument{
		ID:        bson.NewObjectID(),
		UserID:    author,
		Text:      post.Text,
		Img:       post.Img,
		Likes:     []bson.ObjectID{},
		Comments:  []commentDocument{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	post.ID = doc.ID.Hex()
	post.CreatedAt = now
	post.UpdatedAt = now
	post.Normalize()
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*model.Post, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var doc postDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	_, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	return err
}

func (r *postRepository) updateLikes(ctx context.Context, op, postID, userID string) error {
	oid, ok := objectID(postID)
	if !ok {
		return nil
	}
	uid, ok := objectID(userID)
	if !ok {
		return interfaces.ErrInvalidField
	}
	_, err := r.coll.UpdateByID(ctx, oid, bson.D{
		{Key: op, Value: bson.D{{Key: "likes", Value: uid}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	})
	return err
}

func (r *postRepository) AddLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, "$addToSet", postID, userID)
}

func (r *postRepository) RemoveLike(ctx context.Context, postID, userID string) error {
	return r.updateLikes(ctx, "$pull", postID, userID)
}

func (r *postRepository) AppendComment(ctx context.Context, postID string, comment *model.Comment) error {
	oid, ok := objectID(postID)
	if !ok {
		return nil
	}
	uid, ok := objectID(comment.UserID)
	if !ok {
		return interfaces.ErrInvalidField
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	doc := commentDocument{
		ID:        bson.NewObjectID(),
		UserID:    uid,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
	if _, err := r.coll.UpdateByID(ctx, oid, bson.D{
		{Key: "$push", Value: bson.D{{Key: "comments", Value: doc}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}); err != nil {
		return err
	}
	comment.ID = doc.ID.Hex()
	return nil
}

func (r *postRepository) list(ctx context.Context, filter interface{}) ([]*model.Post, error) {
	cursor, err := r.coll.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	return decodePosts(ctx, cursor)
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*model.Post, error) {
	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	posts := make([]*model.Post, len(docs))
	for i := range docs {
		posts[i] = docs[i].toModel()
	}
	return posts, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]*model.Post, error) {
	return r.list(ctx, bson.D{})
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []string) ([]*model.Post, error) {
	oids := objectIDs(authorIDs)
	if len(oids) == 0 {
		return []*model.Post{}, nil
	}
	return r.list(ctx, bson.D{{Key: "user", Value: bson.D{{Key: "$in", Value: oids}}}})
}

func (r *postRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.Post{}, nil
	}
	return r.list(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
}
