// Package handler provides the HTTP surface for ToDoCo: server-rendered
// pages for tasks, users and authentication.
package handler

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/todoco/todoco/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Flash cookie names. Flashes survive exactly one redirect.
const (
	flashCookieName      = "todoco_flash"
	flashErrorCookieName = "todoco_flash_error"
)

// PageData contains common page data rendered by the layout partials.
type PageData struct {
	Title string
	User  *domain.User
	Flash string
	Error string
}

// renderer parses the embedded templates once and renders pages by file name.
type renderer struct {
	templates *template.Template
	logger    zerolog.Logger
}

func newRenderer(logger zerolog.Logger) (*renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &renderer{
		templates: tmpl,
		logger:    logger.With().Str("component", "renderer").Logger(),
	}, nil
}

func (rd *renderer) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		rd.logger.Error().Err(err).Str("template", name).Msg("failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (rd *renderer) renderStatus(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		rd.logger.Error().Err(err).Str("template", name).Msg("failed to render template")
	}
}

// setFlash stores a one-shot success message.
func setFlash(w http.ResponseWriter, message string) {
	setFlashCookie(w, flashCookieName, message)
}

// setFlashError stores a one-shot error message.
func setFlashError(w http.ResponseWriter, message string) {
	setFlashCookie(w, flashErrorCookieName, message)
}

func setFlashCookie(w http.ResponseWriter, name, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60,
	})
}

// popFlashes reads and clears the flash cookies for the current request.
func popFlashes(w http.ResponseWriter, r *http.Request) (flash, flashError string) {
	flash = popFlashCookie(w, r, flashCookieName)
	flashError = popFlashCookie(w, r, flashErrorCookieName)
	return flash, flashError
}

func popFlashCookie(w http.ResponseWriter, r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}
