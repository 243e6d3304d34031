package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"catalog-accounts/internal/cache"
	"catalog-accounts/internal/model"
	"catalog-accounts/internal/pkg/jwtutil"
	"catalog-accounts/internal/testutil"
)

func TestRegister_IssuesTokenAndRecordsSignup(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.auth.Register(context.Background(), nil, RegisterInput{
		Name:      "newuser",
		FullName:  "New User",
		Email:     "new@example.com",
		Password1: "TestPassword1",
		Password2: "TestPassword1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)

	claims, err := jwtutil.ParseToken("test-secret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "newuser", claims.Username)

	items, err := env.activities.Stream(context.Background(), "newuser", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "New User signed up", items[0].Description)
}

func TestRegister_BySysadminReturnsNoToken(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.NewUser(t, env.db, testutil.AsSysadmin())

	res, err := env.auth.Register(context.Background(), callerFor(admin), RegisterInput{
		Name:      "created_by_admin",
		Email:     "c@example.com",
		Password1: "TestPassword1",
		Password2: "TestPassword1",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Token)
	assert.Equal(t, "created_by_admin", res.User.Name)
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv(t)
	existing := testutil.NewUser(t, env.db)

	cases := []struct {
		name    string
		input   RegisterInput
		want    error
		message string
	}{
		{
			name:    "password mismatch",
			input:   RegisterInput{Name: "someone", Email: "s@example.com", Password1: "TestPassword1", Password2: "TestPassword2"},
			want:    ErrInvalidInput,
			message: "Password: The passwords you entered do not match",
		},
		{
			name:  "bad name",
			input: RegisterInput{Name: "Bad Name!", Email: "s@example.com", Password1: "TestPassword1", Password2: "TestPassword1"},
			want:  ErrInvalidInput,
		},
		{
			name:    "password too long",
			input:   RegisterInput{Name: "someone", Email: "s@example.com", Password1: longPassword, Password2: longPassword},
			want:    ErrInvalidInput,
			message: "Password: Your password must be 72 bytes or shorter",
		},
		{
			name:  "name taken",
			input: RegisterInput{Name: existing.Name, Email: "s@example.com", Password1: "TestPassword1", Password2: "TestPassword1"},
			want:  ErrNameExists,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), nil, tc.input)
			assert.ErrorIs(t, err, tc.want)
			if tc.message != "" {
				assert.EqualError(t, err, tc.message)
			}
		})
	}
}

func TestRegister_NameClaimedConcurrently(t *testing.T) {
	env := newTestEnv(t)

	// Another writer takes the name right after Register checks it.
	claimed := false
	require.NoError(t, env.db.Callback().Query().After("gorm:query").Register("test:claim_name", func(tx *gorm.DB) {
		if claimed || tx.Statement.Table != "users" {
			return
		}
		claimed = true
		testutil.NewUser(t, env.db, testutil.WithName("contested"))
	}))

	_, err := env.auth.Register(context.Background(), nil, RegisterInput{
		Name:      "contested",
		Email:     "c@example.com",
		Password1: "TestPassword1",
		Password2: "TestPassword1",
	})
	require.True(t, claimed)
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)
	deleted := testutil.NewUser(t, env.db, testutil.WithState(model.UserStateDeleted))

	res, err := env.auth.Login(LoginInput{Name: user.Name, Password: testutil.DefaultPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = env.auth.Login(LoginInput{Name: user.Name, Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = env.auth.Login(LoginInput{Name: deleted.Name, Password: testutil.DefaultPassword})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = env.auth.Login(LoginInput{Name: "", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthenticate_DeletedUserLosesSession(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)

	caller, err := env.auth.Authenticate(&jwtutil.Claims{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, user.Name, caller.Name)

	user.State = model.UserStateDeleted
	require.NoError(t, env.users.Update(user))

	_, err = env.auth.Authenticate(&jwtutil.Claims{UserID: user.ID})
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	denylist := cache.NewTokenDenylist(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	auth := NewAuthService(env.users, env.hasher, env.activities, denylist, "test-secret", time.Hour)
	user := testutil.NewUser(t, env.db)

	res, err := auth.Login(LoginInput{Name: user.Name, Password: testutil.DefaultPassword})
	require.NoError(t, err)
	claims, err := jwtutil.ParseToken("test-secret", res.Token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(context.Background(), claims))

	revoked, err := denylist.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestEnsureSysadmin(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.auth.EnsureSysadmin("site_admin", "admin@example.com", "AdminPassword1"))
	admin, err := env.users.GetByName("site_admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.True(t, admin.Sysadmin)

	plain := testutil.NewUser(t, env.db, testutil.WithName("promoted"))
	require.NoError(t, env.auth.EnsureSysadmin(plain.Name, plain.Email, ""))
	assert.True(t, env.reload(t, plain.ID).Sysadmin)

	assert.ErrorIs(t, env.auth.EnsureSysadmin("other_admin", "o@example.com", "short"), ErrInvalidInput)
	assert.ErrorIs(t, env.auth.EnsureSysadmin("other_admin", "o@example.com", longPassword), ErrInvalidInput)
}
