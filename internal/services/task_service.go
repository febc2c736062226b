package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"todolist/internal/models"
	"todolist/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var contentRule = fmt.Sprintf("required,max=%d", models.MaxTaskContentLength)

// TaskService handles business logic related to tasks.
type TaskService struct {
	repo     repositories.TaskRepository
	validate *validator.Validate
	now      func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(repo repositories.TaskRepository) *TaskService {
	return &TaskService{
		repo:     repo,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *TaskService) checkContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrInvalidContent
	}
	if err := s.validate.Var(content, contentRule); err != nil {
		return ErrInvalidContent
	}
	return nil
}

// CreateTask adds an open task for owner.
func (s *TaskService) CreateTask(owner uint, content string) (*models.Task, error) {
	if err := s.checkContent(content); err != nil {
		return nil, err
	}

	task := &models.Task{
		Content:   content,
		CreatedAt: s.now().UTC(),
		Complete:  false,
		AccountID: owner,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, storageError(err)
	}
	return task, nil
}

// ListOpenTasks returns the incomplete tasks of owner, oldest first.
func (s *TaskService) ListOpenTasks(owner uint) ([]models.Task, error) {
	tasks, err := s.repo.ListOpenByAccount(owner)
	if err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

// GetTask retrieves a single task by its ID.
func (s *TaskService) GetTask(id uint) (*models.Task, error) {
	task, err := s.repo.GetByID(id)
	if err != nil {
		return nil, repoError(err)
	}
	return task, nil
}

// UpdateContent overwrites the content of a task.
func (s *TaskService) UpdateContent(id uint, content string) error {
	if err := s.checkContent(content); err != nil {
		return err
	}
	return repoError(s.repo.UpdateContent(id, content))
}

// MarkComplete flags a task as done. There is no way back.
func (s *TaskService) MarkComplete(id uint) error {
	return repoError(s.repo.MarkComplete(id))
}

// Delete removes a task.
func (s *TaskService) Delete(id uint) error {
	return repoError(s.repo.Delete(id))
}

func repoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	default:
		return storageError(err)
	}
}
