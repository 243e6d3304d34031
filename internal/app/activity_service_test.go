package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-accounts/internal/cache"
	"catalog-accounts/internal/model"
	"catalog-accounts/internal/repository"
	"catalog-accounts/internal/testutil"
)

func TestRecord_PublishesWhenQueueAvailable(t *testing.T) {
	env := newTestEnv(t)
	publisher := &fakePublisher{}
	activityRepo := repository.NewActivityRepository(env.db)
	svc := NewActivityService(env.users, activityRepo, publisher, nil)
	user := testutil.NewUser(t, env.db)

	svc.Record(context.Background(), user.ID, user.ID, model.ActivityNewUser)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, model.ActivityNewUser, publisher.published[0].ActivityType)
	stored, err := activityRepo.ListByUserID(user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, stored, "worker persists published activities")
}

func TestRecord_FallsBackToDirectWrite(t *testing.T) {
	env := newTestEnv(t)
	publisher := &fakePublisher{err: errors.New("channel closed")}
	activityRepo := repository.NewActivityRepository(env.db)
	svc := NewActivityService(env.users, activityRepo, publisher, nil)
	user := testutil.NewUser(t, env.db)

	svc.Record(context.Background(), user.ID, user.ID, model.ActivityNewUser)

	stored, err := activityRepo.ListByUserID(user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestStream_UsesCacheUntilNewActivity(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	activityCache := cache.NewActivityCache(client, time.Minute, time.Second)
	activityRepo := repository.NewActivityRepository(env.db)
	svc := NewActivityService(env.users, activityRepo, nil, activityCache)

	user := testutil.NewUser(t, env.db)
	other := testutil.NewUser(t, env.db, testutil.WithFullName("Other"))
	require.NoError(t, activityRepo.Create(&model.Activity{
		UserID: user.ID, ObjectID: user.ID, ActivityType: model.ActivityNewUser, CreatedAt: time.Now(),
	}))

	items, err := svc.Stream(context.Background(), user.Name, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mr. Test User signed up", items[0].Description)
	_, hit, err := activityCache.GetStream(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, hit)

	svc.Record(context.Background(), other.ID, user.ID, model.ActivityFollowUser)
	dirty, err := activityCache.IsDirty(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, dirty)

	items, err = svc.Stream(context.Background(), user.Name, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Other started following Mr. Test User", items[0].Description)
}

func TestStream_LimitAndUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)
	for i := 0; i < defaultStreamLimit+5; i++ {
		env.activities.Record(context.Background(), user.ID, user.ID, model.ActivityChangedUser)
	}

	items, err := env.activities.Stream(context.Background(), user.Name, 0)
	require.NoError(t, err)
	assert.Len(t, items, defaultStreamLimit)

	items, err = env.activities.Stream(context.Background(), user.Name, 3)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = env.activities.Stream(context.Background(), "not-found", 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
