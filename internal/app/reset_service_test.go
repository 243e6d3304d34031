package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-accounts/internal/model"
	"catalog-accounts/internal/testutil"
)

var longPassword = strings.Repeat("a", 100)

func TestCreateResetKey_OverwritesPreviousKey(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)

	require.NoError(t, env.reset.CreateResetKey(user))
	first := *env.reload(t, user.ID).ResetKey
	assert.Len(t, first, 2*resetKeyBytes)

	require.NoError(t, env.reset.CreateResetKey(user))
	stored := env.reload(t, user.ID)
	require.NotNil(t, stored.ResetKey)
	require.NotNil(t, stored.ResetKeyIssuedAt)
	assert.NotEqual(t, first, *stored.ResetKey)
}

func TestRequestReset_ByEmail(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)

	require.NoError(t, env.reset.RequestReset(context.Background(), user.Email))

	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, user.ID, env.notifier.sent[0].userID)
	assert.Equal(t, *env.reload(t, user.ID).ResetKey, env.notifier.sent[0].key)
}

func TestRequestReset_ByName(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)

	require.NoError(t, env.reset.RequestReset(context.Background(), user.Name))

	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, user.ID, env.notifier.sent[0].userID)
}

func TestRequestReset_DuplicateEmailsNotifiesEveryAccountInNameOrder(t *testing.T) {
	env := newTestEnv(t)
	b := testutil.NewUser(t, env.db, testutil.WithName("user_b"), testutil.WithEmail("me@example.com"))
	a := testutil.NewUser(t, env.db, testutil.WithName("user_a"), testutil.WithEmail("me@example.com"))

	require.NoError(t, env.reset.RequestReset(context.Background(), "me@example.com"))

	assert.Equal(t, []string{a.Name, b.Name}, env.notifier.names())
	assert.NotNil(t, env.reload(t, a.ID).ResetKey)
	assert.NotNil(t, env.reload(t, b.ID).ResetKey)
}

func TestRequestReset_UnknownIdentifiersSucceedSilently(t *testing.T) {
	env := newTestEnv(t)
	testutil.NewUser(t, env.db)

	for _, identifier := range []string{"unknown", "unknown@example.com", "missing@x.com"} {
		t.Run(identifier, func(t *testing.T) {
			require.NoError(t, env.reset.RequestReset(context.Background(), identifier))
		})
	}
	assert.Empty(t, env.notifier.sent)
}

func TestRequestReset_SkipsDeletedUsers(t *testing.T) {
	env := newTestEnv(t)
	testutil.NewUser(t, env.db, testutil.WithName("gone"), testutil.WithState(model.UserStateDeleted))

	require.NoError(t, env.reset.RequestReset(context.Background(), "gone"))
	assert.Empty(t, env.notifier.sent)
}

func TestRequestReset_EmptyIdentifier(t *testing.T) {
	env := newTestEnv(t)

	err := env.reset.RequestReset(context.Background(), "   ")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Email is required", verr.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestRequestReset_DeliveryFailureIsReportedAndKeyKept(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)
	env.notifier.err = errors.New(`SMTP server could not be connected to: "localhost" [Errno 111] Connection refused`)

	err := env.reset.RequestReset(context.Background(), user.Name)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDelivery))
	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, []string{user.Name}, derr.Recipients)
	assert.NotNil(t, env.reload(t, user.ID).ResetKey, "issued key is not rolled back")
}

func TestRequestReset_DeliveryFailureStillAttemptsEveryMatch(t *testing.T) {
	env := newTestEnv(t)
	a := testutil.NewUser(t, env.db, testutil.WithName("user_a"), testutil.WithEmail("shared@example.com"))
	b := testutil.NewUser(t, env.db, testutil.WithName("user_b"), testutil.WithEmail("shared@example.com"))
	env.notifier.failFor = map[string]error{a.Name: errors.New("connection refused")}

	err := env.reset.RequestReset(context.Background(), "shared@example.com")

	var derr *DeliveryError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, []string{a.Name}, derr.Recipients)
	assert.Equal(t, []string{b.Name}, env.notifier.names(), "later accounts are still notified")
	require.Len(t, env.notifier.sent, 1)
	assert.Equal(t, *env.reload(t, b.ID).ResetKey, env.notifier.sent[0].key)
	assert.NotNil(t, env.reload(t, a.ID).ResetKey, "failed account keeps its issued key")
}

func TestPerformReset_RotatesKeyAndSetsPassword(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)
	require.NoError(t, env.reset.CreateResetKey(user))
	key := *env.reload(t, user.ID).ResetKey

	_, err := env.reset.PerformReset(context.Background(), PerformResetInput{
		UserID:    user.ID,
		Key:       key,
		Password1: "TestPassword1",
		Password2: "TestPassword1",
	})
	require.NoError(t, err)

	stored := env.reload(t, user.ID)
	require.NotNil(t, stored.ResetKey)
	assert.NotEqual(t, key, *stored.ResetKey)
	assert.True(t, env.hasher.Matches(stored.PasswordHash, "TestPassword1"))
}

func TestPerformReset_UsedKeyCannotBeReplayed(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)
	require.NoError(t, env.reset.CreateResetKey(user))
	key := *env.reload(t, user.ID).ResetKey

	input := PerformResetInput{UserID: user.ID, Key: key, Password1: "TestPassword1", Password2: "TestPassword1"}
	_, err := env.reset.PerformReset(context.Background(), input)
	require.NoError(t, err)

	input.Password1, input.Password2 = "OtherPassword2", "OtherPassword2"
	_, err = env.reset.PerformReset(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidResetKey)
	assert.True(t, env.hasher.Matches(env.reload(t, user.ID).PasswordHash, "TestPassword1"))
}

func TestPerformReset_Rejections(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.NewUser(t, env.db)
	fresh := testutil.NewUser(t, env.db)
	require.NoError(t, env.reset.CreateResetKey(user))
	key := *env.reload(t, user.ID).ResetKey

	cases := []struct {
		name  string
		input PerformResetInput
		want  error
	}{
		{"wrong key", PerformResetInput{UserID: user.ID, Key: "deadbeef", Password1: "TestPassword1", Password2: "TestPassword1"}, ErrInvalidResetKey},
		{"empty key", PerformResetInput{UserID: user.ID, Password1: "TestPassword1", Password2: "TestPassword1"}, ErrInvalidResetKey},
		{"no key issued", PerformResetInput{UserID: fresh.ID, Key: key, Password1: "TestPassword1", Password2: "TestPassword1"}, ErrInvalidResetKey},
		{"unknown user", PerformResetInput{UserID: 9999, Key: key, Password1: "TestPassword1", Password2: "TestPassword1"}, ErrUserNotFound},
		{"mismatch", PerformResetInput{UserID: user.ID, Key: key, Password1: "TestPassword1", Password2: "TestPassword2"}, ErrInvalidInput},
		{"too short", PerformResetInput{UserID: user.ID, Key: key, Password1: "short", Password2: "short"}, ErrInvalidInput},
		{"too long", PerformResetInput{UserID: user.ID, Key: key, Password1: longPassword, Password2: longPassword}, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.reset.PerformReset(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Equal(t, key, *env.reload(t, user.ID).ResetKey, "failed attempts keep the key")
}

func TestPerformReset_ExpiredKey(t *testing.T) {
	env := newTestEnv(t)
	svc := NewResetService(env.users, env.notifier, env.hasher, time.Hour)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	user := testutil.NewUser(t, env.db)
	require.NoError(t, svc.CreateResetKey(user))
	key := *user.ResetKey

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err := svc.PerformReset(context.Background(), PerformResetInput{
		UserID: user.ID, Key: key, Password1: "TestPassword1", Password2: "TestPassword1",
	})
	assert.ErrorIs(t, err, ErrInvalidResetKey)

	svc.now = func() time.Time { return issued.Add(30 * time.Minute) }
	_, err = svc.PerformReset(context.Background(), PerformResetInput{
		UserID: user.ID, Key: key, Password1: "TestPassword1", Password2: "TestPassword1",
	})
	assert.NoError(t, err)
}
