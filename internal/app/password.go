package app

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt.GenerateFromPassword rejects longer input.
	maxPasswordBytes = 72
)

var namePattern = regexp.MustCompile(`^[a-z0-9_\-]{2,100}$`)

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", passwordTooLong()
	}
	if err != nil {
		return "", fmt.Errorf("hash password failed: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password is the plaintext of hash.
func (h *PasswordHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func validateNewPassword(password1, password2 string) error {
	if password1 == "" && password2 == "" {
		return validationError("Password", "Please enter both passwords")
	}
	if password1 != password2 {
		return validationError("Password", "The passwords you entered do not match")
	}
	if len(password1) < minPasswordLength {
		return validationError("Password", fmt.Sprintf("Your password must be %d characters or longer", minPasswordLength))
	}
	if len(password1) > maxPasswordBytes {
		return passwordTooLong()
	}
	return nil
}

func passwordTooLong() error {
	return validationError("Password", fmt.Sprintf("Your password must be %d bytes or shorter", maxPasswordBytes))
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return validationError("Name", "Must be 2-100 lowercase alphanumeric characters or these symbols: -_")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return validationError("Email", "Missing value")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return validationError("Email", "Email "+email+" is not a valid format")
	}
	return nil
}
