package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsHalfFinishedFollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.FailNth("users.AddToSet", 2, stderrors.New("connection reset"))
	_, err := f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.Error(t, err)

	r := NewReconciler(f.store.Users(), f.store.Posts())
	report, err := r.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []Edge{{From: f.alice.ID, To: f.bob.ID}}, report.MissingFollowing)
	assert.Equal(t, 0, report.Repaired)
	assert.Empty(t, f.user(t, f.alice.ID).Following)

	report, err = r.Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, []string{f.bob.ID}, f.user(t, f.alice.ID).Following)

	report, err = r.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Inconsistencies())
}

func TestReconcileLikesAndDanglingReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	post := f.post(t, f.bob.ID, "hello")
	gone := f.post(t, f.bob.ID, "soon deleted")

	f.store.FailNext("users.AddToSet", stderrors.New("timeout"))
	_, err := f.engine.ToggleLike(ctx, f.alice.ID, post.ID)
	require.Error(t, err)

	_, err = f.engine.ToggleLike(ctx, f.alice.ID, gone.ID)
	require.NoError(t, err)
	require.NoError(t, f.engine.DeletePost(ctx, f.bob.ID, gone.ID))

	report, err := NewReconciler(f.store.Users(), f.store.Posts()).Run(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []Edge{{From: f.alice.ID, To: post.ID}}, report.MissingLikedPosts)
	assert.Equal(t, []Edge{{From: f.alice.ID, To: gone.ID}}, report.DanglingLikes)
	assert.Equal(t, 1, report.Repaired)

	liked := f.user(t, f.alice.ID).LikedPosts
	assert.Contains(t, liked, post.ID)
	assert.Contains(t, liked, gone.ID)
}

func TestReconcileRemovesStaleFollowing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)

	f.store.FailNth("users.RemoveFromSet", 2, stderrors.New("timeout"))
	_, err = f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.Error(t, err)
	assert.Equal(t, []string{f.bob.ID}, f.user(t, f.alice.ID).Following)

	report, err := NewReconciler(f.store.Users(), f.store.Posts()).Run(ctx, true)
	require.NoError(t, err)
	assert.Len(t, report.StaleFollowing, 1)
	assert.Empty(t, f.user(t, f.alice.ID).Following)
}
