package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/service"
)

// TaskHandler handles the task pages.
type TaskHandler struct {
	taskService *service.TaskService
	renderer    *renderer
	logger      zerolog.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService *service.TaskService, rd *renderer, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		renderer:    rd,
		logger:      logger.With().Str("handler", "task").Logger(),
	}
}

// RegisterRoutes registers task routes. All of them require authentication.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tasks", h.handleList)
	r.Get("/tasks/completed", h.handleListCompleted)
	r.Get("/tasks/create", h.handleCreatePage)
	r.Post("/tasks/create", h.handleCreate)
	r.Get("/tasks/{id}/edit", h.handleEditPage)
	r.Post("/tasks/{id}/edit", h.handleEdit)
	r.Post("/tasks/{id}/toggle", h.handleToggle)
	r.Post("/tasks/{id}/delete", h.handleDelete)
}

// taskView pairs a task with the actor-specific delete permission so the
// template can hide buttons the policy would reject anyway.
type taskView struct {
	Task      *domain.Task
	CanDelete bool
}

// TaskListPageData contains task list page data.
type TaskListPageData struct {
	PageData
	Tasks     []taskView
	Completed bool
}

// TaskFormPageData contains task form page data.
type TaskFormPageData struct {
	PageData
	Task   *domain.Task
	IsEdit bool
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, false)
}

func (h *TaskHandler) handleListCompleted(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, true)
}

func (h *TaskHandler) renderList(w http.ResponseWriter, r *http.Request, completed bool) {
	actor := auth.UserFromContext(r.Context())

	tasks, err := h.taskService.ListByStatus(r.Context(), completed)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list tasks")
		h.renderError(w, r, "Failed to load tasks")
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, taskView{
			Task:      task,
			CanDelete: h.taskService.CanDelete(task, actor),
		})
	}

	title := "Tasks"
	if completed {
		title = "Completed tasks"
	}

	flash, flashError := popFlashes(w, r)
	h.renderer.render(w, "task_list.html", TaskListPageData{
		PageData: PageData{
			Title: title,
			User:  actor,
			Flash: flash,
			Error: flashError,
		},
		Tasks:     views,
		Completed: completed,
	})
}

func (h *TaskHandler) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, "task_form.html", TaskFormPageData{
		PageData: PageData{
			Title: "New task",
			User:  auth.UserFromContext(r.Context()),
		},
		Task: &domain.Task{},
	})
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input := service.CreateTaskInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	if _, err := h.taskService.Create(r.Context(), actor, input); err != nil {
		h.renderer.render(w, "task_form.html", TaskFormPageData{
			PageData: PageData{
				Title: "New task",
				User:  actor,
				Error: taskErrorMessage(err),
			},
			Task: &domain.Task{Title: input.Title, Content: input.Content},
		})
		return
	}

	setFlash(w, "The task has been added.")
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (h *TaskHandler) handleEditPage(w http.ResponseWriter, r *http.Request) {
	task, ok := h.loadTask(w, r)
	if !ok {
		return
	}

	h.renderer.render(w, "task_form.html", TaskFormPageData{
		PageData: PageData{
			Title: "Edit task",
			User:  auth.UserFromContext(r.Context()),
		},
		Task:   task,
		IsEdit: true,
	})
}

func (h *TaskHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	taskID, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input := service.EditTaskInput{
		TaskID:  taskID,
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	task, err := h.taskService.Edit(r.Context(), actor, input)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderer.render(w, "task_form.html", TaskFormPageData{
			PageData: PageData{
				Title: "Edit task",
				User:  actor,
				Error: taskErrorMessage(err),
			},
			Task:   &domain.Task{ID: taskID, Title: input.Title, Content: input.Content},
			IsEdit: true,
		})
		return
	}

	h.logger.Debug().Int64("task_id", task.ID).Msg("task edited via web")
	setFlash(w, "The task has been updated.")
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (h *TaskHandler) handleToggle(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	taskID, ok := parseID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Toggle(r.Context(), actor, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			http.NotFound(w, r)
			return
		}
		setFlashError(w, "Failed to update the task.")
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}

	if task.IsDone {
		setFlash(w, "The task "+task.Title+" has been marked as done.")
	} else {
		setFlash(w, "The task "+task.Title+" has been marked as not done.")
	}
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	taskID, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), actor, taskID); err != nil {
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrTaskForbidden):
			setFlashError(w, "You cannot delete this task.")
			http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		default:
			h.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to delete task")
			setFlashError(w, "Failed to delete the task.")
			http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		}
		return
	}

	setFlash(w, "The task has been deleted.")
	http.Redirect(w, r, "/tasks", http.StatusSeeOther)
}

// loadTask resolves the {id} parameter to a task, writing 404 on failure.
func (h *TaskHandler) loadTask(w http.ResponseWriter, r *http.Request) (*domain.Task, bool) {
	taskID, ok := parseID(w, r)
	if !ok {
		return nil, false
	}

	task, err := h.taskService.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		h.logger.Error().Err(err).Int64("task_id", taskID).Msg("failed to get task")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return task, true
}

func (h *TaskHandler) renderError(w http.ResponseWriter, r *http.Request, message string) {
	h.renderer.renderStatus(w, http.StatusInternalServerError, "error.html", PageData{
		Title: "Error",
		User:  auth.UserFromContext(r.Context()),
		Error: message,
	})
}

// parseID parses the {id} route parameter, writing 404 for garbage.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}
