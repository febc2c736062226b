package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the account and task services. Callers match them with errors.Is.
var (
	ErrInvalidEmail          = errors.New("email is not valid")
	ErrAlreadyExists         = errors.New("user with this email or login already exists")
	ErrWeakCredentials       = errors.New("password must be at least 8 characters long and login at least 3 characters long")
	ErrNotFound              = errors.New("not found")
	ErrAlreadyVerified       = errors.New("account has been already verified")
	ErrInvalidOrExpiredToken = errors.New("the confirmation link is invalid or has expired")
	ErrNotVerified           = errors.New("account has not been verified yet")
	ErrInvalidCredentials    = errors.New("wrong username or password")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrInvalidContent        = errors.New("task content must be between 1 and 200 characters")
	ErrDeliveryError         = errors.New("delivery error")
	ErrStorageError          = errors.New("storage error")
)

func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageError, err)
}

func deliveryError(err error) error {
	return fmt.Errorf("%w: %w", ErrDeliveryError, err)
}
