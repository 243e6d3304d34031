package app

import (
	"context"

	"catalog-accounts/internal/model"
)

// Caller is the authenticated identity of a request. A nil *Caller is an
// anonymous visitor.
type Caller struct {
	UserID   uint
	Name     string
	Sysadmin bool
}

func (c *Caller) IsSysadmin() bool {
	return c != nil && c.Sysadmin
}

// UserDirectory is the persistence the reset flow needs.
type UserDirectory interface {
	GetByName(name string) (*model.User, error)
	ListByEmail(email string) ([]model.User, error)
	GetByID(id uint) (*model.User, error)
	Update(user *model.User) error
	Exists(id uint) (bool, error)
}

// ResetNotifier delivers a reset link for key to the user's e-mail address.
type ResetNotifier interface {
	SendResetLink(ctx context.Context, user *model.User, key string) error
}

type FollowStore interface {
	Create(followerID, followedID uint) (bool, error)
	Delete(followerID, followedID uint) (bool, error)
	Exists(followerID, followedID uint) (bool, error)
	ListFollowers(followedID uint) ([]model.User, error)
	CountFollowers(followedID uint) (int64, error)
}

type AsyncActivityPublisher interface {
	Publish(ctx context.Context, activity model.Activity) error
}

type ActivityCache interface {
	GetStream(ctx context.Context, userID uint) ([]model.Activity, bool, error)
	SetStream(ctx context.Context, userID uint, activities []model.Activity) error
	DeleteStream(ctx context.Context, userID uint) error
	MarkDirty(ctx context.Context, userID uint) error
	IsDirty(ctx context.Context, userID uint) (bool, error)
}
