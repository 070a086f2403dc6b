package mongo

import (
	"context"
	"testing"
	"time"

	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func testTime(offset time.Duration) time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(offset)
}

func TestObjectIDParsing(t *testing.T) {
	oid := bson.NewObjectID()

	parsed, ok := objectID(oid.Hex())
	assert.True(t, ok)
	assert.Equal(t, oid, parsed)

	_, ok = objectID("not-a-hex-id")
	assert.False(t, ok)
	_, ok = objectID("")
	assert.False(t, ok)

	ids := objectIDs([]string{oid.Hex(), "garbage", "65a1f0c2e4b0a1b2c3d4e5f6"})
	require.Len(t, ids, 2)
	assert.Equal(t, oid, ids[0])
	assert.Equal(t, []string{oid.Hex(), "65a1f0c2e4b0a1b2c3d4e5f6"}, hexIDs(ids))
	assert.Equal(t, []string{}, hexIDs(nil))
}

func TestUserDocumentRoundTrip(t *testing.T) {
	follower, followee, liked := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	doc := userDocument{
		ID:           bson.NewObjectID(),
		Username:     "alice",
		FullName:     "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Bio:          "hi",
		Followers:    []bson.ObjectID{follower},
		Following:    []bson.ObjectID{followee},
		LikedPosts:   []bson.ObjectID{liked},
		CreatedAt:    testTime(0),
		UpdatedAt:    testTime(time.Minute),
	}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "liked_posts")
	assert.Contains(t, fields, "full_name")
	assert.Equal(t, "hash", fields["password"])

	var decoded userDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	user := decoded.toModel()

	assert.Equal(t, doc.ID.Hex(), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice", user.FullName)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, []string{follower.Hex()}, user.Followers)
	assert.Equal(t, []string{followee.Hex()}, user.Following)
	assert.Equal(t, []string{liked.Hex()}, user.LikedPosts)
	assert.True(t, doc.CreatedAt.Equal(user.CreatedAt))
}

func TestUserDocumentMissingSetsDecodeEmpty(t *testing.T) {
	raw, err := bson.Marshal(bson.D{{Key: "_id", Value: bson.NewObjectID()}, {Key: "username", Value: "legacy"}})
	require.NoError(t, err)

	var decoded userDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	user := decoded.toModel()

	assert.NotNil(t, user.Followers)
	assert.NotNil(t, user.Following)
	assert.NotNil(t, user.LikedPosts)
	assert.Empty(t, user.Followers)
}

func TestPostDocumentRoundTrip(t *testing.T) {
	author, liker, commenter := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	doc := postDocument{
		ID:     bson.NewObjectID(),
		UserID: author,
		Text:   "hello",
		Likes:  []bson.ObjectID{liker},
		Comments: []commentDocument{
			{ID: bson.NewObjectID(), UserID: commenter, Text: "first", CreatedAt: testTime(time.Second)},
			{ID: bson.NewObjectID(), UserID: author, Text: "second", CreatedAt: testTime(2 * time.Second)},
		},
		CreatedAt: testTime(0),
		UpdatedAt: testTime(0),
	}

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "img")
	assert.Equal(t, author, fields["user"])

	var decoded postDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	post := decoded.toModel()

	assert.Equal(t, doc.ID.Hex(), post.ID)
	assert.Equal(t, author.Hex(), post.UserID)
	assert.Equal(t, []string{liker.Hex()}, post.Likes)
	require.Len(t, post.Comments, 2)
	assert.Equal(t, "first", post.Comments[0].Text)
	assert.Equal(t, commenter.Hex(), post.Comments[0].UserID)
	assert.Equal(t, "second", post.Comments[1].Text)
}

func TestNewestFirstSort(t *testing.T) {
	var opts options.FindOptions
	for _, apply := range newestFirst.List() {
		require.NoError(t, apply(&opts))
	}
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, opts.Sort)
}

func TestDecodeCursors(t *testing.T) {
	ctx := context.Background()
	author := bson.NewObjectID()
	newer := postDocument{ID: bson.NewObjectID(), UserID: author, Text: "newer", CreatedAt: testTime(time.Hour)}
	older := postDocument{ID: bson.NewObjectID(), UserID: author, Text: "older", CreatedAt: testTime(0)}

	cursor, err := mongo.NewCursorFromDocuments([]interface{}{newer, older}, nil, nil)
	require.NoError(t, err)
	posts, err := decodePosts(ctx, cursor)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Text)
	assert.Equal(t, "older", posts[1].Text)
	assert.Equal(t, []string{}, posts[0].Likes)

	user := userDocument{ID: bson.NewObjectID(), Username: "bob"}
	cursor, err = mongo.NewCursorFromDocuments([]interface{}{user}, nil, nil)
	require.NoError(t, err)
	users, err := decodeUsers(ctx, cursor)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, user.ID.Hex(), users[0].ID)

	note := notificationDocument{ID: bson.NewObjectID(), From: author, To: user.ID, Type: "like", CreatedAt: testTime(0)}
	cursor, err = mongo.NewCursorFromDocuments([]interface{}{note}, nil, nil)
	require.NoError(t, err)
	notes, err := decodeNotifications(ctx, cursor)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationLike, notes[0].Type)
	assert.Equal(t, author.Hex(), notes[0].FromID)
	assert.Equal(t, user.ID.Hex(), notes[0].To)
	assert.False(t, notes[0].Read)

	cursor, err = mongo.NewCursorFromDocuments(nil, nil, nil)
	require.NoError(t, err)
	empty, err := decodePosts(ctx, cursor)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

// 以下路径在访问集合之前返回，因此不需要数据库连接
func TestInvalidIDsShortCircuit(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(nil)
	posts := NewPostRepository(nil)
	notifications := NewNotificationRepository(nil)
	valid := bson.NewObjectID().Hex()

	u, err := users.FindByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, u)
	p, err := posts.FindByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, p)

	byIDs, err := users.FindByIDs(ctx, []string{"bad"})
	assert.NoError(t, err)
	assert.NotNil(t, byIDs)
	assert.Empty(t, byIDs)
	feed, err := posts.ListByAuthors(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, feed)
	list, err := notifications.ListByRecipient(ctx, "bad")
	assert.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, users.AddToSet(ctx, valid, model.FieldFollowing, "bad-ref"), interfaces.ErrInvalidField)
	assert.ErrorIs(t, users.AddToSet(ctx, valid, model.UserSetField("bogus"), valid), interfaces.ErrInvalidField)
	assert.ErrorIs(t, posts.AddLike(ctx, valid, "bad-user"), interfaces.ErrInvalidField)
	assert.ErrorIs(t, posts.Create(ctx, &model.Post{UserID: "bad", Text: "x"}), interfaces.ErrInvalidField)
	assert.ErrorIs(t, posts.AppendComment(ctx, valid, &model.Comment{UserID: "bad", Text: "x"}), interfaces.ErrInvalidField)
	assert.ErrorIs(t, notifications.Create(ctx, &model.Notification{FromID: valid, To: "bad"}), interfaces.ErrInvalidField)

	assert.NoError(t, users.RemoveFromSet(ctx, "bad", model.FieldFollowers, valid))
	assert.NoError(t, posts.Delete(ctx, "bad"))
	assert.NoError(t, notifications.DeleteByRecipient(ctx, "bad"))
}
