// Package render fills in the per-request template context shared by every
// page: current user, CSRF token, flash messages.
package render

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"gallery/internal/auth"
	"gallery/internal/forms"
)

type ViewData map[string]any

// MediaURL prefixes stored file names in templates.
const MediaURL = "/media/"

// withUser adds the values every template expects. It touches the session,
// so it must run before anything is written to the response.
func withUser(c *gin.Context, data ViewData) ViewData {
	if data == nil {
		data = ViewData{}
	}
	if u := auth.CurrentUser(c); u != nil {
		data["User"] = u
	}
	// routes outside the session group (api, health, panics there) render without it
	if _, ok := c.Get(sessions.DefaultKey); ok {
		if token, err := auth.CSRFToken(c); err == nil {
			data["CSRFToken"] = token
		} else {
			slog.Error("csrf token", "error", err)
		}
		if flashes := auth.Flashes(c); len(flashes) > 0 {
			data["Flashes"] = flashes
		}
	}
	if _, ok := data["Form"]; !ok {
		data["Form"] = forms.New()
	}
	data["MediaURL"] = MediaURL
	return data
}

// HTML renders a page template with the shared context.
func HTML(c *gin.Context, status int, name string, data ViewData) {
	c.HTML(status, name, withUser(c, data))
}

// Error renders the generic error page.
func Error(c *gin.Context, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	HTML(c, status, "error.tmpl", ViewData{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}

// NotFound is the 404 page.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Page not found")
}

// Forbidden is the 403 page, used for CSRF failures.
func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "CSRF verification failed. Request aborted.")
}

// InternalError is the 500 page.
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Something went wrong on our side.")
}

// ServerError logs err and renders the 500 page.
func ServerError(c *gin.Context, log *slog.Logger, msg string, err error) {
	log.Error(msg, "path", c.Request.URL.Path, "error", err)
	InternalError(c)
}
