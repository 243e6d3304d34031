package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"catalog-accounts/internal/logger"
	"catalog-accounts/internal/model"
	"catalog-accounts/internal/repository"
)

const defaultStreamLimit = 31

type ActivityService struct {
	userRepo     *repository.UserRepository
	activityRepo *repository.ActivityRepository
	publisher    AsyncActivityPublisher
	cache        ActivityCache
	logger       zerolog.Logger
}

type UserSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type ActivityItem struct {
	ID           uint        `json:"id"`
	ActivityType string      `json:"activity_type"`
	Actor        UserSummary `json:"actor"`
	Object       UserSummary `json:"object"`
	Description  string      `json:"description"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewActivityService wires the stream. publisher and cache may be nil, in
// which case activities are written synchronously and never cached.
func NewActivityService(
	userRepo *repository.UserRepository,
	activityRepo *repository.ActivityRepository,
	publisher AsyncActivityPublisher,
	cache ActivityCache,
) *ActivityService {
	return &ActivityService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		cache:        cache,
		logger:       logger.Component("activity_service"),
	}
}

// Record stores an activity. Failures are logged, never returned: the
// action that produced the activity has already succeeded.
func (s *ActivityService) Record(ctx context.Context, actorID, objectID uint, activityType string) {
	activity := model.Activity{
		UserID:       actorID,
		ObjectID:     objectID,
		ActivityType: activityType,
		CreatedAt:    time.Now(),
	}

	if s.cache != nil {
		for _, id := range []uint{actorID, objectID} {
			_ = s.cache.MarkDirty(ctx, id)
			_ = s.cache.DeleteStream(ctx, id)
		}
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, activity)
		if err == nil {
			return
		}
		s.logger.Warn().Err(err).Str("activity_type", activityType).Msg("enqueue activity failed, writing directly")
	}

	if err := s.activityRepo.Create(&activity); err != nil {
		s.logger.Error().Err(err).Str("activity_type", activityType).Msg("record activity failed")
	}
}

// Stream returns the newest activities done by or to the user named by ref.
func (s *ActivityService) Stream(ctx context.Context, ref string, limit int) ([]ActivityItem, error) {
	if limit <= 0 || limit > defaultStreamLimit {
		limit = defaultStreamLimit
	}

	user, err := s.userRepo.GetByRef(ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	activities, err := s.load(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return s.render(activities)
}

func (s *ActivityService) load(ctx context.Context, userID uint) ([]model.Activity, error) {
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx, userID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetStream(ctx, userID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	activities, err := s.activityRepo.ListByUserID(userID, defaultStreamLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx, userID); dirtyErr == nil && !dirty {
			_ = s.cache.SetStream(ctx, userID, activities)
		}
	}
	return activities, nil
}

func (s *ActivityService) render(activities []model.Activity) ([]ActivityItem, error) {
	ids := make([]uint, 0, len(activities)*2)
	seen := make(map[uint]bool)
	for _, a := range activities {
		for _, id := range []uint{a.UserID, a.ObjectID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	users, err := s.userRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = summarize(&users[i])
	}

	items := make([]ActivityItem, 0, len(activities))
	for _, a := range activities {
		actor := byID[a.UserID]
		object := byID[a.ObjectID]
		items = append(items, ActivityItem{
			ID:           a.ID,
			ActivityType: a.ActivityType,
			Actor:        actor,
			Object:       object,
			Description:  describe(a.ActivityType, actor, object),
			CreatedAt:    a.CreatedAt,
		})
	}
	return items, nil
}

func summarize(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, DisplayName: u.DisplayName()}
}

func describe(activityType string, actor, object UserSummary) string {
	switch activityType {
	case model.ActivityNewUser:
		return actor.DisplayName + " signed up"
	case model.ActivityChangedUser:
		if actor.ID == object.ID {
			return actor.DisplayName + " updated their profile"
		}
		return actor.DisplayName + " updated the profile of " + object.DisplayName
	case model.ActivityDeletedUser:
		return actor.DisplayName + " deleted the user " + object.DisplayName
	case model.ActivityFollowUser:
		return actor.DisplayName + " started following " + object.DisplayName
	default:
		return actor.DisplayName + " " + activityType
	}
}
