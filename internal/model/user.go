package model

import "time"

const (
	UserStateActive  = "active"
	UserStateDeleted = "deleted"
)

type User struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:100;not null;uniqueIndex" json:"name"`
	FullName         string     `gorm:"size:255" json:"fullname"`
	Email            string     `gorm:"size:255;not null;index" json:"email,omitempty"`
	About            string     `gorm:"type:text" json:"about"`
	PasswordHash     string     `gorm:"size:255;not null" json:"-"`
	State            string     `gorm:"size:16;not null;default:active;index" json:"state"`
	Sysadmin         bool       `gorm:"not null;default:false" json:"sysadmin"`
	ResetKey         *string    `gorm:"size:64" json:"-"`
	ResetKeyIssuedAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DisplayName is the full name when set, the login name otherwise.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Name
}

func (u *User) IsDeleted() bool {
	return u.State == UserStateDeleted
}
