package app

import (
	"context"
	"strings"

	"catalog-accounts/internal/model"
	"catalog-accounts/internal/repository"
)

type UserService struct {
	userRepo   *repository.UserRepository
	hasher     *PasswordHasher
	activities *ActivityService
}

type ListUsersInput struct {
	Query  string
	Limit  int
	Offset int
}

// UpdateUserInput holds a partial profile edit. Nil fields are unchanged.
// OldPassword must be the caller's current password when an owner changes
// their e-mail address or password.
type UpdateUserInput struct {
	Name        *string
	FullName    *string
	Email       *string
	About       *string
	OldPassword string
	Password1   string
	Password2   string
}

func NewUserService(userRepo *repository.UserRepository, hasher *PasswordHasher, activities *ActivityService) *UserService {
	return &UserService{
		userRepo:   userRepo,
		hasher:     hasher,
		activities: activities,
	}
}

func (s *UserService) Show(ref string) (*model.User, error) {
	user, err := s.userRepo.GetByRef(ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns active users. Only sysadmins may match on e-mail addresses.
func (s *UserService) List(caller *Caller, input ListUsersInput) ([]model.User, error) {
	return s.userRepo.Search(repository.UserSearch{
		Query:        input.Query,
		IncludeEmail: caller.IsSysadmin(),
		Limit:        input.Limit,
		Offset:       input.Offset,
	})
}

func (s *UserService) Update(ctx context.Context, caller *Caller, ref string, input UpdateUserInput) (*model.User, error) {
	if caller == nil {
		return nil, ErrLoginRequired
	}
	if strings.TrimSpace(ref) == "" {
		ref = caller.Name
	}
	user, err := s.userRepo.GetByRef(ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	isOwner := user.ID == caller.UserID
	if !isOwner && !caller.IsSysadmin() {
		return nil, ErrNotAuthorized
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name != user.Name {
			if !caller.IsSysadmin() {
				return nil, validationError("Name", "That login name can not be modified")
			}
			if err := validateName(name); err != nil {
				return nil, err
			}
			taken, err := s.userRepo.GetByName(name)
			if err != nil {
				return nil, err
			}
			if taken != nil {
				return nil, ErrNameExists
			}
			user.Name = name
		}
	}

	emailChanged := false
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email != user.Email {
			if err := validateEmail(email); err != nil {
				return nil, err
			}
			emailChanged = true
			user.Email = email
		}
	}
	passwordChanged := input.Password1 != "" || input.Password2 != ""

	if (emailChanged || passwordChanged) && isOwner {
		if !s.hasher.Matches(user.PasswordHash, input.OldPassword) {
			return nil, validationError("Old Password", "incorrect password")
		}
	}
	if passwordChanged {
		if err := validateNewPassword(input.Password1, input.Password2); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(input.Password1)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if input.FullName != nil {
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.About != nil {
		user.About = *input.About
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, nameConflict(err)
	}
	if s.activities != nil {
		s.activities.Record(ctx, caller.UserID, user.ID, model.ActivityChangedUser)
	}
	return user, nil
}

// Delete marks the user deleted. Rows are kept so activity and follow
// history still resolve.
func (s *UserService) Delete(ctx context.Context, caller *Caller, ref string) error {
	if caller == nil {
		return ErrLoginRequired
	}
	if !caller.IsSysadmin() {
		return ErrNotAuthorized
	}
	user, err := s.userRepo.GetByRef(ref)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsDeleted() {
		return nil
	}

	user.State = model.UserStateDeleted
	user.ResetKey = nil
	user.ResetKeyIssuedAt = nil
	if err := s.userRepo.Update(user); err != nil {
		return err
	}
	if s.activities != nil {
		s.activities.Record(ctx, caller.UserID, user.ID, model.ActivityDeletedUser)
	}
	return nil
}
