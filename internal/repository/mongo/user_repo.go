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

type userDocument struct {
	ID           bson.ObjectID   `bson:"_id"`
	Username     string          `bson:"username"`
	FullName     string          `bson:"full_name"`
	Email        string          `bson:"email"`
	PasswordHash string          `bson:"password"`
	ProfileImg   string          `bson:"profile_img"`
	CoverImg     string          `bson:"cover_img"`
	Bio          string          `bson:"bio"`
	Link         string          `bson:"link"`
	Followers    []bson.ObjectID `bson:"followers"`
	Following    []bson.ObjectID `bson:"following"`
	LikedPosts   []bson.ObjectID `bson:"liked_posts"`
	CreatedAt    time.Time       `bson:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at"`
}

// 集合字段与文档字段名的对应关系
var setFieldNames = map[model.UserSetField]string{
	model.FieldFollowers:  "followers",
	model.FieldFollowing:  "following",
	model.FieldLikedPosts: "liked_posts",
}

func (d *userDocument) toModel() *model.User {
	u := &model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		ProfileImg:   d.ProfileImg,
		CoverImg:     d.CoverImg,
		Bio:          d.Bio,
		Link:         d.Link,
		Followers:    hexIDs(d.Followers),
		Following:    hexIDs(d.Following),
		LikedPosts:   hexIDs(d.LikedPosts),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	return u.Normalize()
}

// decodeUsers 读取游标中的全部用户文档
func decodeUsers(ctx context.Context, cursor *mongo.Cursor) ([]*model.User, error) {
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	users := make([]*model.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toModel()
	}
	return users, nil
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository 创建身份存储
func NewUserRepository(coll *mongo.Collection) interfaces.UserRepository {
	return &userRepository{coll: coll}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	doc := userDocument{
		ID:           bson.NewObjectID(),
		Username:     user.Username,
		FullName:     user.FullName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		ProfileImg:   user.ProfileImg,
		CoverImg:     user.CoverImg,
		Bio:          user.Bio,
		Link:         user.Link,
		Followers:    []bson.ObjectID{},
		Following:    []bson.ObjectID{},
		LikedPosts:   []bson.ObjectID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return err
	}
	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Normalize()
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *userRepository) find(ctx context.Context, filter interface{}) ([]*model.User, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cursor)
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []*model.User{}, nil
	}
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}})
}

func (r *userRepository) FindAll(ctx context.Context) ([]*model.User, error) {
	return r.find(ctx, bson.D{})
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	oid, ok := objectID(user.ID)
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "username", Value: user.Username},
		{Key: "full_name", Value: user.FullName},
		{Key: "email", Value: user.Email},
		{Key: "password", Value: user.PasswordHash},
		{Key: "profile_img", Value: user.ProfileImg},
		{Key: "cover_img", Value: user.CoverImg},
		{Key: "bio", Value: user.Bio},
		{Key: "link", Value: user.Link},
		{Key: "updated_at", Value: now},
	}}}
	if _, err := r.coll.UpdateByID(ctx, oid, update); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return interfaces.ErrDuplicate
		}
		return err
	}
	user.UpdatedAt = now
	return nil
}

func (r *userRepository) AddToSet(ctx context.Context, userID string, field model.UserSetField, ref string) error {
	return r.updateSet(ctx, "$addToSet", userID, field, ref)
}

func (r *userRepository) RemoveFromSet(ctx context.Context, userID string, field model.UserSetField, ref string) error {
	return r.updateSet(ctx, "$pull", userID, field, ref)
}

func (r *userRepository) updateSet(ctx context.Context, op, userID string, field model.UserSetField, ref string) error {
	name, ok := setFieldNames[field]
	if !ok {
		return interfaces.ErrInvalidField
	}
	oid, ok := objectID(userID)
	if !ok {
		return nil
	}
	refID, ok := objectID(ref)
	if !ok {
		return interfaces.ErrInvalidField
	}
	_, err := r.coll.UpdateByID(ctx, oid, bson.D{{Key: op, Value: bson.D{{Key: name, Value: refID}}}})
	return err
}

func (r *userRepository) Sample(ctx context.Context, excludeID string, size int) ([]*model.User, error) {
	match := bson.D{}
	if oid, ok := objectID(excludeID); ok {
		match = bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: oid}}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: size}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeUsers(ctx, cursor)
}

func (r *userRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}
