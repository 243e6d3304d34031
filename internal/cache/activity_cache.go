package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"catalog-accounts/internal/model"
)

// MaxCachedActivities bounds a cached stream to what one page shows.
const MaxCachedActivities = 31

// ActivityCache keeps recent activity streams per user. A dirty
// marker is set while a new activity is still queued for persistence, so
// readers skip the cache until the worker has caught up.
type ActivityCache struct {
	client         *redisv9.Client
	streamTTL      time.Duration
	dirtyMarkerTTL time.Duration
}

func NewActivityCache(client *redisv9.Client, streamTTL, dirtyMarkerTTL time.Duration) *ActivityCache {
	if streamTTL <= 0 {
		streamTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &ActivityCache{
		client:         client,
		streamTTL:      streamTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *ActivityCache) GetStream(ctx context.Context, userID uint) ([]model.Activity, bool, error) {
	raw, err := c.client.Get(ctx, c.streamKey(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get activity stream failed: %w", err)
	}

	var activities []model.Activity
	if err := json.Unmarshal([]byte(raw), &activities); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached activity stream failed: %w", err)
	}
	return activities, true, nil
}

// SetStream caches the newest-first stream, keeping at most
// MaxCachedActivities entries.
func (c *ActivityCache) SetStream(ctx context.Context, userID uint, activities []model.Activity) error {
	if len(activities) > MaxCachedActivities {
		activities = activities[:MaxCachedActivities]
	}
	payload, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("marshal activity stream failed: %w", err)
	}
	if err := c.client.Set(ctx, c.streamKey(userID), payload, c.streamTTL).Err(); err != nil {
		return fmt.Errorf("redis set activity stream failed: %w", err)
	}
	return nil
}

func (c *ActivityCache) DeleteStream(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.streamKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete activity stream failed: %w", err)
	}
	return nil
}

func (c *ActivityCache) MarkDirty(ctx context.Context, userID uint) error {
	if err := c.client.Set(ctx, c.dirtyKey(userID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *ActivityCache) IsDirty(ctx context.Context, userID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *ActivityCache) streamKey(userID uint) string {
	return fmt.Sprintf("user:activity:%d", userID)
}

func (c *ActivityCache) dirtyKey(userID uint) string {
	return fmt.Sprintf("user:activity:dirty:%d", userID)
}
