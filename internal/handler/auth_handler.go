package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/auth"
	"github.com/todoco/todoco/internal/service"
)

// AuthHandler handles login, logout and self-registration.
type AuthHandler struct {
	userService    *service.UserService
	sessionService *service.SessionService
	sessionTTL     time.Duration
	cookieSecure   bool
	renderer       *renderer
	logger         zerolog.Logger
}

// AuthHandlerConfig contains configuration for the auth handler.
type AuthHandlerConfig struct {
	UserService    *service.UserService
	SessionService *service.SessionService
	SessionTTL     time.Duration
	CookieSecure   bool
	Renderer       *renderer
	Logger         zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		userService:    cfg.UserService,
		sessionService: cfg.SessionService,
		sessionTTL:     cfg.SessionTTL,
		cookieSecure:   cfg.CookieSecure,
		renderer:       cfg.Renderer,
		logger:         cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers authentication routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/register", h.handleRegisterPage)
	r.Post("/register", h.handleRegister)
}

func (h *AuthHandler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	flash, flashError := popFlashes(w, r)
	h.renderer.render(w, "login.html", PageData{
		Title: "Log in",
		Flash: flash,
		Error: flashError,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.render(w, "login.html", PageData{Title: "Log in", Error: "Invalid form data"})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderer.render(w, "login.html", PageData{Title: "Log in", Error: "Username and password are required"})
		return
	}

	user, err := h.userService.Authenticate(r.Context(), username, password)
	if err != nil {
		h.logger.Debug().Err(err).Str("username", username).Msg("login failed")
		h.renderer.render(w, "login.html", PageData{Title: "Log in", Error: "Invalid username or password"})
		return
	}

	token, err := h.sessionService.Login(r.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create session")
		h.renderer.render(w, "login.html", PageData{Title: "Log in", Error: "Internal error, try again"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL / time.Second),
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.SessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.sessionService.Logout(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	_, flashError := popFlashes(w, r)
	h.renderer.render(w, "register.html", PageData{
		Title: "Sign up",
		Error: flashError,
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.render(w, "register.html", PageData{Title: "Sign up", Error: "Invalid form data"})
		return
	}

	_, err := h.userService.Create(r.Context(), service.CreateUserInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	})
	if err != nil {
		h.logger.Debug().Err(err).Msg("registration failed")
		h.renderer.render(w, "register.html", PageData{Title: "Sign up", Error: userErrorMessage(err)})
		return
	}

	setFlash(w, "The user has been added.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
