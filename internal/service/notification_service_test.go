package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationListMarksRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewNotificationService(f.store.Notifications(), f.store.Users())
	_, err := f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)

	first, err := svc.List(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, first[0].Read)
	require.NotNil(t, first[0].From)
	assert.Equal(t, "alice", first[0].From.Username)
	assert.Empty(t, first[0].From.PasswordHash)

	second, err := svc.List(ctx, f.bob.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].Read)
}

func TestNotificationDeleteAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewNotificationService(f.store.Notifications(), f.store.Users())
	_, err := f.engine.ToggleFollow(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	_, err = f.engine.ToggleFollow(ctx, f.bob.ID, f.alice.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAll(ctx, f.bob.ID))

	list, err := svc.List(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	others, err := svc.List(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}
