package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"catalog-accounts/internal/logger"
	"catalog-accounts/internal/model"
)

const resetKeyBytes = 32

// ResetService issues and consumes single-use password reset keys.
type ResetService struct {
	users    UserDirectory
	notifier ResetNotifier
	hasher   *PasswordHasher
	keyTTL   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

type PerformResetInput struct {
	UserID    uint
	Key       string
	Password1 string
	Password2 string
}

// NewResetService builds the service. keyTTL <= 0 disables key expiry.
func NewResetService(users UserDirectory, notifier ResetNotifier, hasher *PasswordHasher, keyTTL time.Duration) *ResetService {
	return &ResetService{
		users:    users,
		notifier: notifier,
		hasher:   hasher,
		keyTTL:   keyTTL,
		now:      time.Now,
		logger:   logger.Component("reset_service"),
	}
}

// CreateResetKey replaces any previous key on user and persists it.
func (s *ResetService) CreateResetKey(user *model.User) error {
	key, err := newResetKey()
	if err != nil {
		return err
	}
	issuedAt := s.now()
	user.ResetKey = &key
	user.ResetKeyIssuedAt = &issuedAt
	return s.users.Update(user)
}

// RequestReset sends a reset link to every account matching identifier,
// which is a user name or an e-mail address. A miss is not an error, so
// callers cannot tell whether an account exists.
func (s *ResetService) RequestReset(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return validationError("", "Email is required")
	}

	users, err := s.lookup(identifier)
	if err != nil {
		return err
	}

	var (
		failed   []string
		firstErr error
	)
	for i := range users {
		user := &users[i]
		if err := s.CreateResetKey(user); err != nil {
			return err
		}
		if err := s.notifier.SendResetLink(ctx, user, *user.ResetKey); err != nil {
			s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("send reset link failed")
			failed = append(failed, user.Name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.logger.Info().Uint("user_id", user.ID).Msg("reset link sent")
	}

	if firstErr != nil {
		return &DeliveryError{Recipients: failed, Err: firstErr}
	}
	return nil
}

// PerformReset checks key against the stored key of userID, sets the new
// password and rotates the key so it cannot be replayed.
func (s *ResetService) PerformReset(ctx context.Context, input PerformResetInput) (*model.User, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted() {
		return nil, ErrUserNotFound
	}

	if !s.keyMatches(user, input.Key) {
		s.logger.Warn().Uint("user_id", user.ID).Msg("reset key rejected")
		return nil, ErrInvalidResetKey
	}

	if err := validateNewPassword(input.Password1, input.Password2); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password1)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.CreateResetKey(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ResetService) lookup(identifier string) ([]model.User, error) {
	user, err := s.users.GetByName(identifier)
	if err != nil {
		return nil, err
	}

	var candidates []model.User
	switch {
	case user != nil:
		candidates = []model.User{*user}
	case strings.Contains(identifier, "@"):
		candidates, err = s.users.ListByEmail(identifier)
		if err != nil {
			return nil, err
		}
	}

	matches := candidates[:0]
	for _, u := range candidates {
		if !u.IsDeleted() {
			matches = append(matches, u)
		}
	}
	return matches, nil
}

func (s *ResetService) keyMatches(user *model.User, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || user.ResetKey == nil || *user.ResetKey == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(*user.ResetKey)) != 1 {
		return false
	}
	if s.keyTTL > 0 {
		if user.ResetKeyIssuedAt == nil || s.now().Sub(*user.ResetKeyIssuedAt) > s.keyTTL {
			return false
		}
	}
	return true
}

func newResetKey() (string, error) {
	buf := make([]byte, resetKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset key failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
