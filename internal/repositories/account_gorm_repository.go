package repositories

import (
	"errors"
	"fmt"

	"todolist/internal/models"

	"gorm.io/gorm"
)

// GORMAccountRepository is a GORM implementation of AccountRepository.
type GORMAccountRepository struct {
	db *gorm.DB
}

// NewGORMAccountRepository creates a new instance of GORMAccountRepository.
func NewGORMAccountRepository(db *gorm.DB) *GORMAccountRepository {
	return &GORMAccountRepository{
		db: db,
	}
}

// Create inserts a new account.
func (r *GORMAccountRepository) Create(account *models.Account) error {
	if err := r.db.Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create account %s: %w", account.Username, ErrDuplicate)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *GORMAccountRepository) GetByID(id uint) (*models.Account, error) {
	return r.first("id", id)
}

// GetByUsername retrieves an account by its username.
func (r *GORMAccountRepository) GetByUsername(username string) (*models.Account, error) {
	return r.first("username", username)
}

// GetByEmail retrieves an account by its email address.
func (r *GORMAccountRepository) GetByEmail(email string) (*models.Account, error) {
	return r.first("email", email)
}

func (r *GORMAccountRepository) first(column string, value interface{}) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account with %s %v: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by %s %v: %w", column, value, err)
	}
	return &account, nil
}

// MarkVerified sets the verified flag of an account.
func (r *GORMAccountRepository) MarkVerified(id uint) error {
	res := r.db.Model(&models.Account{}).Where("id = ?", id).Update("verified", true)
	if res.Error != nil {
		return fmt.Errorf("failed to verify account %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account with ID %d: %w", id, ErrNotFound)
	}
	return nil
}
