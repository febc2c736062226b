package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"todolist/internal/models"
)

// MemoryTaskRepository is an in-memory implementation of TaskRepository.
type MemoryTaskRepository struct {
	tasks  map[uint]models.Task
	nextID uint
	mu     sync.RWMutex
}

// NewMemoryTaskRepository creates a new instance of MemoryTaskRepository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[uint]models.Task),
	}
}

// Create adds a new task.
func (r *MemoryTaskRepository) Create(task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	task.ID = r.nextID
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	r.tasks[task.ID] = *task
	return nil
}

// GetByID returns a task by its ID.
func (r *MemoryTaskRepository) GetByID(id uint) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	return &task, nil
}

// ListOpenByAccount returns the incomplete tasks of an account, oldest first.
func (r *MemoryTaskRepository) ListOpenByAccount(accountID uint) ([]models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]models.Task, 0)
	for _, task := range r.tasks {
		if task.AccountID == accountID && !task.Complete {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// UpdateContent overwrites the content of a task.
func (r *MemoryTaskRepository) UpdateContent(id uint, content string) error {
	return r.update(id, func(t *models.Task) { t.Content = content })
}

// MarkComplete flags a task as done.
func (r *MemoryTaskRepository) MarkComplete(id uint) error {
	return r.update(id, func(t *models.Task) { t.Complete = true })
}

func (r *MemoryTaskRepository) update(id uint, apply func(*models.Task)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	apply(&task)
	r.tasks[id] = task
	return nil
}

// Delete removes a task by its ID.
func (r *MemoryTaskRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task with ID %d: %w", id, ErrNotFound)
	}
	delete(r.tasks, id)
	return nil
}
