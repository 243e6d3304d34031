package model

import "time"

const (
	ActivityNewUser     = "new user"
	ActivityChangedUser = "changed user"
	ActivityDeletedUser = "deleted user"
	ActivityFollowUser  = "follow user"
)

type Activity struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	ObjectID     uint      `gorm:"not null;index" json:"object_id"`
	ActivityType string    `gorm:"size:32;not null" json:"activity_type"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
