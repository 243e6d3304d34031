package repository

import (
	"fmt"

	"gorm.io/gorm"

	"catalog-accounts/internal/model"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(activity *model.Activity) error {
	if err := r.db.Create(activity).Error; err != nil {
		return fmt.Errorf("create activity failed: %w", err)
	}
	return nil
}

// ListByUserID returns activities done by or to the user, newest first.
func (r *ActivityRepository) ListByUserID(userID uint, limit int) ([]model.Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 31
	}

	var activities []model.Activity
	if err := r.db.Where("user_id = ? OR object_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("list activities failed: %w", err)
	}
	return activities, nil
}
