package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/domain"
	"github.com/todoco/todoco/internal/service"
)

// UserHandler handles the admin-only user management pages.
type UserHandler struct {
	userService *service.UserService
	renderer    *renderer
	logger      zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService *service.UserService, rd *renderer, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		renderer:    rd,
		logger:      logger.With().Str("handler", "user").Logger(),
	}
}

// RegisterRoutes registers user management routes. The router mounts these
// behind the admin role gate.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.handleList)
	r.Get("/users/create", h.handleCreatePage)
	r.Post("/users/create", h.handleCreate)
	r.Get("/users/{id}/edit", h.handleEditPage)
	r.Post("/users/{id}/edit", h.handleEdit)
	r.Post("/users/{id}/delete", h.handleDelete)
}

// UserListPageData contains user list page data.
type UserListPageData struct {
	PageData
	Users []*domain.User
}

// UserFormPageData contains user form page data.
type UserFormPageData struct {
	PageData
	FormUser *domain.User
	IsAdmin  bool
	IsEdit   bool
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	output, err := h.userService.List(r.Context(), service.ListUsersInput{Limit: 100})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	flash, flashError := popFlashes(w, r)
	h.renderer.render(w, "user_list.html", UserListPageData{
		PageData: PageData{
			Title: "Users",
			User:  actor,
			Flash: flash,
			Error: flashError,
		},
		Users: output.Users,
	})
}

func (h *UserHandler) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, "user_form.html", UserFormPageData{
		PageData: PageData{
			Title: "New user",
			User:  auth.UserFromContext(r.Context()),
		},
		FormUser: &domain.User{},
	})
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input := service.CreateUserInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Roles:    rolesFromForm(r),
	}

	if _, err := h.userService.Create(r.Context(), input); err != nil {
		h.renderer.render(w, "user_form.html", UserFormPageData{
			PageData: PageData{
				Title: "New user",
				User:  actor,
				Error: userErrorMessage(err),
			},
			FormUser: &domain.User{Username: input.Username, Email: input.Email},
			IsAdmin:  r.FormValue("admin") == "on",
		})
		return
	}

	setFlash(w, "The user has been added.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *UserHandler) handleEditPage(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderer.render(w, "user_form.html", UserFormPageData{
		PageData: PageData{
			Title: "Edit user",
			User:  auth.UserFromContext(r.Context()),
		},
		FormUser: user,
		IsAdmin:  user.HasRole(domain.RoleAdmin),
		IsEdit:   true,
	})
}

func (h *UserHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	userID, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input := service.UpdateUserInput{
		UserID:   userID,
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Roles:    rolesFromForm(r),
	}

	if _, err := h.userService.Update(r.Context(), input); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.NotFound(w, r)
			return
		}
		h.renderer.render(w, "user_form.html", UserFormPageData{
			PageData: PageData{
				Title: "Edit user",
				User:  actor,
				Error: userErrorMessage(err),
			},
			FormUser: &domain.User{ID: userID, Username: input.Username, Email: input.Email},
			IsAdmin:  r.FormValue("admin") == "on",
			IsEdit:   true,
		})
		return
	}

	setFlash(w, "The user has been updated.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	actor := auth.UserFromContext(r.Context())

	userID, ok := parseID(w, r)
	if !ok {
		return
	}

	// Admins cannot delete themselves through the web surface.
	if actor != nil && actor.ID == userID {
		setFlashError(w, "You cannot delete your own account.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to delete user")
		setFlashError(w, "Failed to delete the user.")
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	setFlash(w, "The user has been deleted.")
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// rolesFromForm maps the admin checkbox to a role slice.
func rolesFromForm(r *http.Request) []string {
	if r.FormValue("admin") == "on" {
		return []string{domain.RoleAdmin}
	}
	return nil
}
