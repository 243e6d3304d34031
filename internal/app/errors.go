package app

import (
	"errors"
	"fmt"

	"catalog-accounts/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNameExists        = errors.New("that login name is not available")
	ErrInvalidCredential = errors.New("login failed. bad username or password")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidResetKey   = errors.New("invalid reset key, please try again")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrLoginRequired     = errors.New("login required")
	ErrDelivery          = errors.New("error sending the email")
)

// ValidationError is a user-facing message about one input field. It matches
// ErrInvalidInput under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func validationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// DeliveryError reports that one or more reset e-mails could not be sent.
// It matches ErrDelivery under errors.Is and unwraps to the mailer failure.
type DeliveryError struct {
	Recipients []string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDelivery.Error(), e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }

// nameConflict maps a unique name violation from a concurrent writer to
// ErrNameExists.
func nameConflict(err error) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return ErrNameExists
	}
	return err
}
