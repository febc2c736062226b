package repositories

import (
	"fmt"
	"sync"
	"time"

	"todolist/internal/models"
)

// MemoryAccountRepository is an in-memory implementation of AccountRepository.
type MemoryAccountRepository struct {
	accounts map[uint]models.Account
	nextID   uint
	mu       sync.RWMutex
}

// NewMemoryAccountRepository creates a new instance of MemoryAccountRepository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[uint]models.Account),
	}
}

// Create adds a new account, enforcing username and email uniqueness.
func (r *MemoryAccountRepository) Create(account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return fmt.Errorf("failed to create account %s: %w", account.Username, ErrDuplicate)
		}
	}

	r.nextID++
	account.ID = r.nextID
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	stored := *account
	stored.Tasks = nil
	r.accounts[account.ID] = stored
	return nil
}

// GetByID returns an account by its ID.
func (r *MemoryAccountRepository) GetByID(id uint) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account with id %d: %w", id, ErrNotFound)
	}
	return &account, nil
}

// GetByUsername returns an account by its username.
func (r *MemoryAccountRepository) GetByUsername(username string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.Username == username }, "username", username)
}

// GetByEmail returns an account by its email address.
func (r *MemoryAccountRepository) GetByEmail(email string) (*models.Account, error) {
	return r.find(func(a models.Account) bool { return a.Email == email }, "email", email)
}

func (r *MemoryAccountRepository) find(match func(models.Account) bool, column, value string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.accounts {
		if match(account) {
			found := account
			return &found, nil
		}
	}
	return nil, fmt.Errorf("account with %s %s: %w", column, value, ErrNotFound)
}

// MarkVerified sets the verified flag of an account.
func (r *MemoryAccountRepository) MarkVerified(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account with ID %d: %w", id, ErrNotFound)
	}
	account.Verified = true
	r.accounts[id] = account
	return nil
}
