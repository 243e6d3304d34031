package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-accounts/internal/model"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts the edge and reports whether a new row was written.
func (r *FollowRepository) Create(followerID, followedID uint) (bool, error) {
	follow := model.UserFollow{FollowerID: followerID, FollowedID: followedID}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
	if result.Error != nil {
		return false, fmt.Errorf("create follow failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the edge and reports whether one existed.
func (r *FollowRepository) Delete(followerID, followedID uint) (bool, error) {
	result := r.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&model.UserFollow{})
	if result.Error != nil {
		return false, fmt.Errorf("delete follow failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *FollowRepository) Exists(followerID, followedID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.UserFollow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count follow failed: %w", err)
	}
	return count > 0, nil
}

// ListFollowers returns the active users following followedID, by name.
func (r *FollowRepository) ListFollowers(followedID uint) ([]model.User, error) {
	var users []model.User
	if err := r.db.Model(&model.User{}).
		Joins("JOIN user_follows ON user_follows.follower_id = users.id").
		Where("user_follows.followed_id = ? AND users.state <> ?", followedID, model.UserStateDeleted).
		Order("users.name ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list followers failed: %w", err)
	}
	return users, nil
}

func (r *FollowRepository) CountFollowers(followedID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.UserFollow{}).
		Joins("JOIN users ON users.id = user_follows.follower_id").
		Where("user_follows.followed_id = ? AND users.state <> ?", followedID, model.UserStateDeleted).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count followers failed: %w", err)
	}
	return count, nil
}
