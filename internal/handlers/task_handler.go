package handlers

import (
	"errors"
	"log"

	"todolist/internal/middleware"
	"todolist/internal/models"
	"todolist/internal/services"

	"github.com/gofiber/fiber/v2"
)

type taskForm struct {
	Content string `form:"content"`
}

// TaskHandler serves the task list of the logged-in account.
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
	}
}

// RegisterRoutes registers the task routes, all of them behind requireSession.
func (h *TaskHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	router.Get("/tasks", requireSession, h.HandleListTasks)
	router.Post("/tasks", requireSession, h.HandleCreateTask)
	router.Get("/delete/:id<int>", requireSession, h.HandleDeleteTask)
	router.Get("/update/:id<int>", requireSession, h.HandleUpdateForm)
	router.Post("/update/:id<int>", requireSession, h.HandleUpdateTask)
	router.Get("/done/:id<int>", requireSession, h.HandleCompleteTask)
}

// HandleListTasks shows the open tasks of the caller.
func (h *TaskHandler) HandleListTasks(c *fiber.Ctx) error {
	return h.renderList(c, fiber.StatusOK, "")
}

// HandleCreateTask adds a task for the caller.
func (h *TaskHandler) HandleCreateTask(c *fiber.Ctx) error {
	var form taskForm
	if err := c.BodyParser(&form); err != nil {
		return h.renderList(c, fiber.StatusBadRequest, "Invalid form submission")
	}

	task, err := h.tasks.CreateTask(middleware.AccountID(c), form.Content)
	switch {
	case err == nil:
		log.Printf("Account %d created task %d", task.AccountID, task.ID)
		return h.renderList(c, fiber.StatusCreated, "")
	case errors.Is(err, services.ErrInvalidContent):
		return h.renderList(c, fiber.StatusBadRequest, "Task must have between 1 and 200 characters")
	default:
		return internalError(c, "There was an issue adding the task", err)
	}
}

// HandleDeleteTask removes one of the caller's tasks.
func (h *TaskHandler) HandleDeleteTask(c *fiber.Ctx) error {
	task, err := h.ownedTask(c)
	if err != nil || task == nil {
		return err
	}
	if err := h.tasks.Delete(task.ID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c)
		}
		return internalError(c, "There was an issue deleting the task", err)
	}
	return h.renderList(c, fiber.StatusOK, "")
}

// HandleUpdateForm shows the edit form of one of the caller's tasks.
func (h *TaskHandler) HandleUpdateForm(c *fiber.Ctx) error {
	task, err := h.ownedTask(c)
	if err != nil || task == nil {
		return err
	}
	return render(c, fiber.StatusOK, pageUpdate, pageData{Task: task})
}

// HandleUpdateTask overwrites the content of one of the caller's tasks.
func (h *TaskHandler) HandleUpdateTask(c *fiber.Ctx) error {
	task, err := h.ownedTask(c)
	if err != nil || task == nil {
		return err
	}

	var form taskForm
	if err := c.BodyParser(&form); err != nil {
		return render(c, fiber.StatusBadRequest, pageUpdate, pageData{Task: task, Message: "Invalid form submission"})
	}

	err = h.tasks.UpdateContent(task.ID, form.Content)
	switch {
	case err == nil:
		return c.Redirect("/tasks", fiber.StatusSeeOther)
	case errors.Is(err, services.ErrInvalidContent):
		return render(c, fiber.StatusBadRequest, pageUpdate, pageData{
			Task:    task,
			Message: "Task must have between 1 and 200 characters",
		})
	case errors.Is(err, services.ErrNotFound):
		return notFound(c)
	default:
		return internalError(c, "There was an issue updating the task", err)
	}
}

// HandleCompleteTask marks one of the caller's tasks as done.
func (h *TaskHandler) HandleCompleteTask(c *fiber.Ctx) error {
	task, err := h.ownedTask(c)
	if err != nil || task == nil {
		return err
	}
	if err := h.tasks.MarkComplete(task.ID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return notFound(c)
		}
		return internalError(c, "There was an issue completing the task", err)
	}
	return h.renderList(c, fiber.StatusOK, "")
}

// ownedTask loads the task named in the path. When it does not exist or
// belongs to someone else the response is already written and the task is nil.
func (h *TaskHandler) ownedTask(c *fiber.Ctx) (*models.Task, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, notFound(c)
	}

	task, err := h.tasks.GetTask(uint(id))
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNotFound):
		return nil, notFound(c)
	default:
		return nil, internalError(c, "There was an issue loading the task", err)
	}

	if task.AccountID != middleware.AccountID(c) {
		log.Printf("Account %d tried to access task %d of account %d", middleware.AccountID(c), task.ID, task.AccountID)
		return nil, notFound(c)
	}
	return task, nil
}

func (h *TaskHandler) renderList(c *fiber.Ctx, status int, message string) error {
	tasks, err := h.tasks.ListOpenTasks(middleware.AccountID(c))
	if err != nil {
		return internalError(c, "There was an issue loading your tasks", err)
	}
	return render(c, status, pageTasks, pageData{Tasks: tasks, Message: message})
}
