package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"catalog-accounts/internal/model"
)

// ErrDuplicateKey reports a unique index violation, such as a taken name.
var ErrDuplicateKey = errors.New("duplicate key")

// likeEscaper makes user input match literally inside LIKE ... ESCAPE '!'.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type UserRepository struct {
	db *gorm.DB
}

// UserSearch filters the user index. Deleted users are never listed.
type UserSearch struct {
	Query        string
	IncludeEmail bool
	Limit        int
	Offset       int
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create user failed: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("update user failed: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("update user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByName(name string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("name = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by name failed: %w", err)
	}
	return &user, nil
}

// ListByEmail returns every account registered with email, ordered by name.
func (r *UserRepository) ListByEmail(email string) ([]model.User, error) {
	var users []model.User
	if err := r.db.Where("LOWER(email) = ?", strings.ToLower(email)).Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("query users by email failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

// GetByRef resolves a numeric id or a user name.
func (r *UserRepository) GetByRef(ref string) (*model.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil && id > 0 {
		user, err := r.GetByID(uint(id))
		if err != nil || user != nil {
			return user, err
		}
	}
	return r.GetByName(ref)
}

func (r *UserRepository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count user failed: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Search(search UserSearch) ([]model.User, error) {
	limit := search.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	query := r.db.Where("state <> ?", model.UserStateDeleted)
	if q := strings.ToLower(strings.TrimSpace(search.Query)); q != "" {
		like := "%" + likeEscaper.Replace(q) + "%"
		if search.IncludeEmail {
			query = query.Where(
				"LOWER(name) LIKE ? ESCAPE '!' OR LOWER(full_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!'",
				like, like, like,
			)
		} else {
			query = query.Where("LOWER(name) LIKE ? ESCAPE '!' OR LOWER(full_name) LIKE ? ESCAPE '!'", like, like)
		}
	}

	var users []model.User
	if err := query.Order("name ASC").Limit(limit).Offset(search.Offset).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) ListByIDs(ids []uint) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []model.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users by ids failed: %w", err)
	}
	return users, nil
}
