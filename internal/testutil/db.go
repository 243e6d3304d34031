// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-accounts/internal/model"
)

// DefaultPassword is the plaintext password of users made by NewUser.
const DefaultPassword = "RandomPassword123"

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&model.User{}, &model.UserFollow{}, &model.Activity{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewUser inserts an active user. Options mutate the user before insert.
func NewUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	n := count + 1

	user := &model.User{
		Name:         fmt.Sprintf("test_user_%d", n),
		FullName:     "Mr. Test User",
		Email:        fmt.Sprintf("test_user_%d@ckan.org", n),
		PasswordHash: string(hash),
		State:        model.UserStateActive,
	}
	for _, opt := range opts {
		opt(user)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func WithName(name string) func(*model.User) {
	return func(u *model.User) { u.Name = name }
}

func WithFullName(fullName string) func(*model.User) {
	return func(u *model.User) { u.FullName = fullName }
}

func WithEmail(email string) func(*model.User) {
	return func(u *model.User) { u.Email = email }
}

func WithState(state string) func(*model.User) {
	return func(u *model.User) { u.State = state }
}

func AsSysadmin() func(*model.User) {
	return func(u *model.User) { u.Sysadmin = true }
}
