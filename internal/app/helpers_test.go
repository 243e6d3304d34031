package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"catalog-accounts/internal/model"
	"catalog-accounts/internal/repository"
	"catalog-accounts/internal/testutil"
)

type sentLink struct {
	userID uint
	name   string
	key    string
}

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []sentLink
	err     error
	failFor map[string]error // per user name
}

func (f *fakeNotifier) SendResetLink(ctx context.Context, user *model.User, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if err := f.failFor[user.Name]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentLink{userID: user.ID, name: user.Name, key: key})
	return nil
}

func (f *fakeNotifier) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.name)
	}
	return out
}

type fakePublisher struct {
	mu        sync.Mutex
	published []model.Activity
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, activity model.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, activity)
	return nil
}

type testEnv struct {
	db         *gorm.DB
	users      *repository.UserRepository
	hasher     *PasswordHasher
	activities *ActivityService
	notifier   *fakeNotifier
	reset      *ResetService
	follow     *FollowService
	userSvc    *UserService
	auth       *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	hasher := NewPasswordHasher(bcrypt.MinCost)
	activities := NewActivityService(users, repository.NewActivityRepository(db), nil, nil)
	notifier := &fakeNotifier{}

	return &testEnv{
		db:         db,
		users:      users,
		hasher:     hasher,
		activities: activities,
		notifier:   notifier,
		reset:      NewResetService(users, notifier, hasher, 0),
		follow:     NewFollowService(users, repository.NewFollowRepository(db), activities),
		userSvc:    NewUserService(users, hasher, activities),
		auth:       NewAuthService(users, hasher, activities, nil, "test-secret", time.Hour),
	}
}

func callerFor(u *model.User) *Caller {
	return &Caller{UserID: u.ID, Name: u.Name, Sysadmin: u.Sysadmin}
}

func (e *testEnv) reload(t *testing.T, id uint) *model.User {
	t.Helper()
	u, err := e.users.GetByID(id)
	if err != nil || u == nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return u
}
