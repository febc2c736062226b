package repositories

import (
	"todolist/internal/models"
)

// TaskRepository defines the interface for task data access.
type TaskRepository interface {
	Create(task *models.Task) error
	GetByID(id uint) (*models.Task, error)
	// ListOpenByAccount returns the incomplete tasks of an account, oldest first.
	ListOpenByAccount(accountID uint) ([]models.Task, error)
	UpdateContent(id uint, content string) error
	MarkComplete(id uint) error
	Delete(id uint) error
}
