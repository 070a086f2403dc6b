package service

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"testing"

	"social-backend/internal/errors"
	"social-backend/internal/model"
	"social-backend/internal/repository/interfaces"
	"social-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMedia 记录上传和删除调用
type fakeMedia struct {
	uploads    []string
	destroyed  []string
	uploadErr  error
	destroyErr error
	maxUploads int // 大于 0 时超出次数的上传失败
}

func (m *fakeMedia) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	if m.maxUploads > 0 && len(m.uploads) >= m.maxUploads {
		return "", stderrors.New("upload quota reached")
	}
	m.uploads = append(m.uploads, name)
	return "https://cdn.example.com/media/" + name, nil
}

func (m *fakeMedia) Destroy(ctx context.Context, token string) error {
	m.destroyed = append(m.destroyed, token)
	return m.destroyErr
}

type fixture struct {
	store  *memory.Store
	media  *fakeMedia
	engine *EngagementEngine
	feed   *FeedService
	alice  *model.User
	bob    *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	media := &fakeMedia{}
	f := &fixture{
		store:  store,
		media:  media,
		engine: NewEngagementEngine(store.Users(), store.Posts(), store.Notifications(), media),
		feed:   NewFeedService(store.Users(), store.Posts(), media),
	}
	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")
	return f
}

func (f *fixture) createUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, FullName: name, Email: name + "@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) user(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := f.store.Users().FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (f *fixture) post(t *testing.T, authorID, text string) *model.Post {
	t.Helper()
	p, err := f.feed.CreatePost(context.Background(), authorID, CreatePostInput{Text: text})
	require.NoError(t, err)
	return p
}

func (f *fixture) notificationsFor(t *testing.T, id string) []*model.Notification {
	t.Helper()
	list, err := f.store.Notifications().ListByRecipient(context.Background(), id)
	require.NoError(t, err)
	return list
}

func TestToggleFollowRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	state, err := f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, Followed, state)
	assert.Equal(t, []string{f.bob.ID}, f.user(t, f.alice.ID).Following)
	assert.Equal(t, []string{f.alice.ID}, f.user(t, f.bob.ID).Followers)

	notes := f.notificationsFor(t, f.bob.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationFollow, notes[0].Type)
	assert.Equal(t, f.alice.ID, notes[0].FromID)
	assert.False(t, notes[0].Read)

	state, err = f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, Unfollowed, state)
	assert.Empty(t, f.user(t, f.alice.ID).Following)
	assert.Empty(t, f.user(t, f.bob.ID).Followers)
	assert.Len(t, f.notificationsFor(t, f.bob.ID), 1, "unfollow does not notify")
}

func TestFollowInverseInvariant(t *testing.T) {
	f := newFixture(t)
	carol := f.createUser(t, "carol")
	ctx := context.Background()

	pairs := [][2]string{
		{f.alice.ID, f.bob.ID}, {f.bob.ID, carol.ID}, {carol.ID, f.alice.ID},
		{f.alice.ID, carol.ID}, {f.alice.ID, f.bob.ID},
	}
	for _, p := range pairs {
		_, err := f.engine.ToggleFollow(ctx, p[0], p[1])
		require.NoError(t, err)
	}

	all, err := f.store.Users().FindAll(ctx)
	require.NoError(t, err)
	for _, a := range all {
		for _, b := range all {
			assert.Equal(t, a.IsFollowing(b.ID), b.HasFollower(a.ID))
		}
	}
}

func TestSelfFollowRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ToggleFollow(context.Background(), f.alice.ID, f.alice.ID)

	assert.True(t, errors.Is(err, errors.ErrSelfReference))
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))
	alice := f.user(t, f.alice.ID)
	assert.Empty(t, alice.Following)
	assert.Empty(t, alice.Followers)
	assert.Empty(t, f.notificationsFor(t, f.alice.ID))
}

func TestFollowMissingUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ToggleFollow(context.Background(), f.alice.ID, "ghost")

	assert.Equal(t, http.StatusNotFound, errors.StatusOf(err))
	assert.Empty(t, f.user(t, f.alice.ID).Following)
}

func TestFollowStopsAtFailedStep(t *testing.T) {
	f := newFixture(t)
	f.store.FailNext("users.AddToSet", stderrors.New("connection reset"))

	_, err := f.engine.ToggleFollow(context.Background(), f.alice.ID, f.bob.ID)

	assert.Equal(t, http.StatusInternalServerError, errors.StatusOf(err))
	assert.Empty(t, f.user(t, f.bob.ID).Followers)
	assert.Empty(t, f.user(t, f.alice.ID).Following)
	assert.Empty(t, f.notificationsFor(t, f.bob.ID))
}

func TestFollowActorStepFailureLeavesTargetSide(t *testing.T) {
	f := newFixture(t)
	f.store.FailNth("users.AddToSet", 2, stderrors.New("connection reset"))

	_, err := f.engine.ToggleFollow(context.Background(), f.alice.ID, f.bob.ID)

	assert.Equal(t, http.StatusInternalServerError, errors.StatusOf(err))
	assert.Equal(t, []string{f.alice.ID}, f.user(t, f.bob.ID).Followers)
	assert.Empty(t, f.user(t, f.alice.ID).Following)
	assert.Empty(t, f.notificationsFor(t, f.bob.ID))
}

func TestToggleLikeRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.bob.ID, "hello")

	res, err := f.engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, []string{f.alice.ID}, res.Likes)
	assert.Equal(t, []string{post.ID}, f.user(t, f.alice.ID).LikedPosts)

	notes := f.notificationsFor(t, f.bob.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationLike, notes[0].Type)

	res, err = f.engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Empty(t, res.Likes)
	assert.NotNil(t, res.Likes)
	assert.Empty(t, f.user(t, f.alice.ID).LikedPosts)

	stored, _ := f.store.Posts().FindByID(ctx, post.ID)
	assert.Empty(t, stored.Likes)
	assert.Len(t, f.notificationsFor(t, f.bob.ID), 1, "unlike does not notify")
}

func TestLikeMirrorInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.post(t, f.bob.ID, "one")
	p2 := f.post(t, f.alice.ID, "two")

	for _, step := range []struct{ user, post string }{
		{f.alice.ID, p1.ID}, {f.bob.ID, p1.ID}, {f.alice.ID, p2.ID}, {f.bob.ID, p1.ID},
	} {
		_, err := f.engine.ToggleLike(ctx, step.user, step.post)
		require.NoError(t, err)
	}

	for _, pid := range []string{p1.ID, p2.ID} {
		post, _ := f.store.Posts().FindByID(ctx, pid)
		for _, uid := range []string{f.alice.ID, f.bob.ID} {
			assert.Equal(t, post.LikedBy(uid), f.user(t, uid).HasLiked(pid))
		}
	}
}

func TestLikeSetsStayDeduplicated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.bob.ID, "hello")

	require.NoError(t, f.store.Posts().AddLike(ctx, post.ID, f.alice.ID))
	require.NoError(t, f.store.Posts().AddLike(ctx, post.ID, f.alice.ID))
	stored, _ := f.store.Posts().FindByID(ctx, post.ID)
	assert.Equal(t, []string{f.alice.ID}, stored.Likes)

	res, err := f.engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Empty(t, res.Likes)
}

// racingPosts 在点赞写入后插入另一个用户的点赞
type racingPosts struct {
	interfaces.PostRepository
	otherID string
}

func (r racingPosts) AddLike(ctx context.Context, postID, userID string) error {
	if err := r.PostRepository.AddLike(ctx, postID, userID); err != nil {
		return err
	}
	return r.PostRepository.AddLike(ctx, postID, r.otherID)
}

func TestLikeResultIncludesConcurrentLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carol := f.createUser(t, "carol")
	post := f.post(t, f.bob.ID, "popular")
	engine := NewEngagementEngine(f.store.Users(), racingPosts{PostRepository: f.store.Posts(), otherID: carol.ID}, f.store.Notifications(), f.media)

	res, err := engine.ToggleLike(ctx, f.alice.ID, post.ID)

	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.ElementsMatch(t, []string{f.alice.ID, carol.ID}, res.Likes)

	res, err = engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, []string{carol.ID}, res.Likes)
}

func TestSelfLikeHasNoNotification(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, f.alice.ID, "mine")

	res, err := f.engine.ToggleLike(context.Background(), f.alice.ID, post.ID)

	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Empty(t, f.notificationsFor(t, f.alice.ID))
}

func TestLikeMissingPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ToggleLike(context.Background(), f.alice.ID, "ghost")

	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, f.user(t, f.alice.ID).LikedPosts)
}

func TestCommentsKeepInsertionOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.bob.ID, "hello")

	_, err := f.engine.AddComment(ctx, f.alice.ID, post.ID, "first")
	require.NoError(t, err)
	updated, err := f.engine.AddComment(ctx, f.bob.ID, post.ID, "second")
	require.NoError(t, err)

	require.Len(t, updated.Comments, 2)
	assert.Equal(t, "first", updated.Comments[0].Text)
	assert.Equal(t, "second", updated.Comments[1].Text)
	require.NotNil(t, updated.Comments[0].User)
	assert.Equal(t, "alice", updated.Comments[0].User.Username)
	assert.Empty(t, updated.Comments[0].User.PasswordHash)
	assert.Equal(t, "bob", updated.User.Username)
	assert.Empty(t, f.notificationsFor(t, f.bob.ID), "comments do not notify")
}

func TestEmptyCommentRejected(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, f.bob.ID, "hello")

	_, err := f.engine.AddComment(context.Background(), f.alice.ID, post.ID, "   ")

	assert.True(t, errors.IsValidation(err))
	stored, _ := f.store.Posts().FindByID(context.Background(), post.ID)
	assert.Empty(t, stored.Comments)
}

func TestDeletePostByNonAuthor(t *testing.T) {
	f := newFixture(t)
	post := f.post(t, f.alice.ID, "mine")

	err := f.engine.DeletePost(context.Background(), f.bob.ID, post.ID)

	assert.True(t, errors.Is(err, errors.ErrNotAuthor))
	assert.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))
	stored, _ := f.store.Posts().FindByID(context.Background(), post.ID)
	assert.NotNil(t, stored)
}

func TestDeletePostDestroysImageBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post, err := f.feed.CreatePost(ctx, f.alice.ID, CreatePostInput{ImgDataURL: "data:image/png;base64,aGVsbG8="})
	require.NoError(t, err)
	require.NotEmpty(t, post.Img)
	f.media.destroyErr = stderrors.New("cdn down")

	require.NoError(t, f.engine.DeletePost(ctx, f.alice.ID, post.ID))

	require.Len(t, f.media.destroyed, 1)
	assert.NotContains(t, f.media.destroyed[0], ".png")
	stored, _ := f.store.Posts().FindByID(ctx, post.ID)
	assert.Nil(t, stored)
}

func TestDeletePostLeavesLikedReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.bob.ID, "hello")
	_, err := f.engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeletePost(ctx, f.bob.ID, post.ID))

	assert.Equal(t, []string{post.ID}, f.user(t, f.alice.ID).LikedPosts)
	assert.Len(t, f.notificationsFor(t, f.bob.ID), 1)
}

func TestAliceFollowsAndLikesBob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.bob.ID, "bob's post")

	_, err := f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.NoError(t, err)

	notes := f.notificationsFor(t, f.bob.ID)
	require.Len(t, notes, 2)
	assert.Equal(t, model.NotificationLike, notes[0].Type)
	assert.Equal(t, model.NotificationFollow, notes[1].Type)

	feed, err := f.feed.ListFollowing(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)
	assert.Equal(t, []string{f.alice.ID}, feed[0].Likes)
}

func TestNotificationRuleTable(t *testing.T) {
	_, hasComment := notificationRules[OpComment]
	assert.False(t, hasComment)

	ev := engagementEvent{Actor: "a", TargetUser: "t", PostAuthor: "p"}
	assert.Equal(t, "t", notificationRules[OpFollow].Recipient(ev))
	assert.Equal(t, "p", notificationRules[OpLike].Recipient(ev))
}
