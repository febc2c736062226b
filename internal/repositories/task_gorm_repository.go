package repositories

import (
	"errors"
	"fmt"

	"todolist/internal/models"

	"gorm.io/gorm"
)

// GORMTaskRepository is a GORM implementation of TaskRepository.
type GORMTaskRepository struct {
	db *gorm.DB
}

// NewGORMTaskRepository creates a new instance of GORMTaskRepository.
func NewGORMTaskRepository(db *gorm.DB) *GORMTaskRepository {
	return &GORMTaskRepository{
		db: db,
	}
}

// Create inserts a new task.
func (r *GORMTaskRepository) Create(task *models.Task) error {
	if err := r.db.Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetByID retrieves a single task by its ID.
func (r *GORMTaskRepository) GetByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get task by ID %d: %w", id, err)
	}
	return &task, nil
}

// ListOpenByAccount retrieves the incomplete tasks of an account ordered by creation time.
func (r *GORMTaskRepository) ListOpenByAccount(accountID uint) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	err := r.db.
		Where("account_id = ? AND complete = ?", accountID, false).
		Order("created_at ASC").
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks of account %d: %w", accountID, err)
	}
	return tasks, nil
}

// UpdateContent overwrites the content of a task.
func (r *GORMTaskRepository) UpdateContent(id uint, content string) error {
	return r.updateColumn(id, "content", content)
}

// MarkComplete flags a task as done.
func (r *GORMTaskRepository) MarkComplete(id uint) error {
	return r.updateColumn(id, "complete", true)
}

func (r *GORMTaskRepository) updateColumn(id uint, column string, value interface{}) error {
	res := r.db.Model(&models.Task{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of task %d: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete deletes a task by its ID.
func (r *GORMTaskRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Task{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	return nil
}
