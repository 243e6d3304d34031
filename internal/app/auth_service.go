package app

import (
	"context"
	"strings"
	"time"

	"catalog-accounts/internal/model"
	"catalog-accounts/internal/pkg/jwtutil"
	"catalog-accounts/internal/repository"
)

type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type AuthService struct {
	userRepo      *repository.UserRepository
	hasher        *PasswordHasher
	activities    *ActivityService
	revoker       TokenRevoker
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterInput struct {
	Name      string
	FullName  string
	Email     string
	Password1 string
	Password2 string
}

type LoginInput struct {
	Name     string
	Password string
}

// AuthResult carries the session token. Token is empty when a sysadmin
// registered the account on someone else's behalf.
type AuthResult struct {
	Token string
	User  *model.User
}

func NewAuthService(
	userRepo *repository.UserRepository,
	hasher *PasswordHasher,
	activities *ActivityService,
	revoker TokenRevoker,
	jwtSecret string,
	jwtExpiration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		hasher:        hasher,
		activities:    activities,
		revoker:       revoker,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(ctx context.Context, caller *Caller, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validateNewPassword(input.Password1, input.Password2); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNameExists
	}

	hash, err := s.hasher.Hash(input.Password1)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        email,
		PasswordHash: hash,
		State:        model.UserStateActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nameConflict(err)
	}
	if s.activities != nil {
		s.activities.Record(ctx, user.ID, user.ID, model.ActivityNewUser)
	}

	if caller.IsSysadmin() {
		return &AuthResult{User: user}, nil
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Name, user.Sysadmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Login(input LoginInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.GetByName(name)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted() {
		return nil, ErrInvalidCredential
	}
	if !s.hasher.Matches(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Name, user.Sysadmin)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Logout revokes the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *jwtutil.Claims) error {
	if claims == nil || s.revoker == nil {
		return nil
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

// Authenticate resolves a token subject to the current account state, so
// deleted users and revoked sysadmin flags take effect immediately.
func (s *AuthService) Authenticate(claims *jwtutil.Claims) (*Caller, error) {
	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsDeleted() {
		return nil, ErrLoginRequired
	}
	return &Caller{UserID: user.ID, Name: user.Name, Sysadmin: user.Sysadmin}, nil
}

func (s *AuthService) GetUserByID(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(id)
}

// EnsureSysadmin creates the named sysadmin account if it is missing and
// grants the flag if the account exists without it.
func (s *AuthService) EnsureSysadmin(name, email, password string) error {
	user, err := s.userRepo.GetByName(name)
	if err != nil {
		return err
	}
	if user != nil {
		if user.Sysadmin {
			return nil
		}
		user.Sysadmin = true
		return s.userRepo.Update(user)
	}

	if err := validateName(name); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return validationError("Password", "sysadmin password is too short")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return nameConflict(s.userRepo.Create(&model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		State:        model.UserStateActive,
		Sysadmin:     true,
	}))
}
