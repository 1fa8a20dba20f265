// Package auth keeps the logged-in user in the session and guards routes
// that need one.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gallery/internal/models"
)

const (
	SessionCookieName = "gallery_session"

	sessionKeyUserID = "user_id"
	sessionKeyCSRF   = "csrf_token"

	// ContextUserKey holds *models.User for authenticated requests.
	ContextUserKey = "currentUser"

	LoginPath = "/login/"
)

// Login binds the user to a new session. The previous session is discarded
// and a fresh CSRF token issued, so neither a session id nor a token seen
// before login is valid after it.
func Login(c *gin.Context, u *models.User) error {
	sess := sessions.Default(c)
	if err := renew(c, sess); err != nil {
		return err
	}
	sess.Set(sessionKeyUserID, u.ID)
	token, err := newToken()
	if err != nil {
		return err
	}
	sess.Set(sessionKeyCSRF, token)
	c.Set(ContextUserKey, u)
	return sess.Save()
}

// renew expires the current session and restores the store's cookie options,
// so the next Save starts over: the db backend deletes the old row and mints
// a new id.
func renew(c *gin.Context, sess sessions.Session) error {
	sess.Clear()
	v, ok := c.Get(contextOptionsKey)
	if !ok {
		return nil
	}
	opts, _ := v.(sessions.Options)
	sess.Options(sessions.Options{Path: opts.Path, MaxAge: -1})
	if err := sess.Save(); err != nil {
		return err
	}
	sess.Options(opts)
	return nil
}

// Logout drops everything stored in the session and expires the cookie.
func Logout(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	c.Set(ContextUserKey, nil)
	return sess.Save()
}

// LoadUser resolves the session's user id into ContextUserKey. A session whose
// user no longer exists is cleared and treated as anonymous; any other lookup
// failure is handed to onError and the request aborted.
func LoadUser(db *gorm.DB, log *slog.Logger, onError gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		id, ok := sess.Get(sessionKeyUserID).(uint)
		if !ok || id == 0 {
			c.Next()
			return
		}

		var u models.User
		err := db.WithContext(c.Request.Context()).First(&u, id).Error
		switch {
		case err == nil:
			c.Set(ContextUserKey, &u)
		case errors.Is(err, gorm.ErrRecordNotFound):
			sess.Delete(sessionKeyUserID)
			_ = sess.Save()
		default:
			log.Error("load session user", "user_id", id, "error", err)
			onError(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// RequireLogin redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginURL builds /login/?next=<next>.
func LoginURL(next string) string {
	if next == "" || next == LoginPath {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeRedirect returns next when it is a local absolute path, else fallback.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	// "//host" and "/\host" are treated as scheme-relative by browsers
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}

// AddFlash queues a one-shot message for the next rendered page.
func AddFlash(c *gin.Context, msg string) error {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	return sess.Save()
}

// Flashes pops queued messages.
func Flashes(c *gin.Context) []string {
	sess := sessions.Default(c)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save()
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
