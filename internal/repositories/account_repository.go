package repositories

import (
	"errors"

	"todolist/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// AccountRepository defines the interface for account data access.
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByUsername(username string) (*models.Account, error)
	GetByEmail(email string) (*models.Account, error)
	MarkVerified(id uint) error
}
