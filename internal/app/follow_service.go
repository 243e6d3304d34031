package app

import (
	"context"

	"catalog-accounts/internal/model"
	"catalog-accounts/internal/repository"
)

type FollowService struct {
	userRepo   *repository.UserRepository
	follows    FollowStore
	activities *ActivityService
}

// FollowResult describes the target and whether the relation changed.
// Changed is false for a repeated follow or an unfollow of a user the
// caller was not following.
type FollowResult struct {
	Target  *model.User
	Changed bool
}

func NewFollowService(userRepo *repository.UserRepository, follows FollowStore, activities *ActivityService) *FollowService {
	return &FollowService{
		userRepo:   userRepo,
		follows:    follows,
		activities: activities,
	}
}

func (s *FollowService) Follow(ctx context.Context, caller *Caller, targetRef string) (*FollowResult, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}
	target, err := s.userRepo.GetByRef(targetRef)
	if err != nil {
		return nil, err
	}
	if target == nil || target.IsDeleted() {
		return nil, ErrUserNotFound
	}
	if target.ID == caller.UserID {
		return nil, validationError("", "You cannot follow yourself")
	}

	created, err := s.follows.Create(caller.UserID, target.ID)
	if err != nil {
		return nil, err
	}
	if created && s.activities != nil {
		s.activities.Record(ctx, caller.UserID, target.ID, model.ActivityFollowUser)
	}
	return &FollowResult{Target: target, Changed: created}, nil
}

func (s *FollowService) Unfollow(ctx context.Context, caller *Caller, targetRef string) (*FollowResult, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}
	target, err := s.userRepo.GetByRef(targetRef)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	deleted, err := s.follows.Delete(caller.UserID, target.ID)
	if err != nil {
		return nil, err
	}
	return &FollowResult{Target: target, Changed: deleted}, nil
}

// ListFollowers is restricted to sysadmins whatever the relation data.
func (s *FollowService) ListFollowers(ctx context.Context, caller *Caller, targetRef string) ([]model.User, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}
	if !caller.IsSysadmin() {
		return nil, ErrNotAuthorized
	}
	target, err := s.userRepo.GetByRef(targetRef)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	return s.follows.ListFollowers(target.ID)
}

func (s *FollowService) IsFollowing(caller *Caller, targetRef string) (bool, error) {
	if caller == nil {
		return false, nil
	}
	target, err := s.userRepo.GetByRef(targetRef)
	if err != nil {
		return false, err
	}
	if target == nil {
		return false, ErrUserNotFound
	}
	return s.follows.Exists(caller.UserID, target.ID)
}

func (s *FollowService) FollowerCount(targetRef string) (int64, error) {
	target, err := s.userRepo.GetByRef(targetRef)
	if err != nil {
		return 0, err
	}
	if target == nil {
		return 0, ErrUserNotFound
	}
	return s.follows.CountFollowers(target.ID)
}
