package accounts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"gallery/internal/auth"
	"gallery/internal/forms"
	"gallery/internal/render"
)

const (
	MsgAccountCreated  = "Account created successfully!"
	MsgBadCredentials  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	MsgPasswordsDiffer = "The two password fields didn't match."
)

type registerForm struct {
	Username  string `form:"username" binding:"required,max=150"`
	Password1 string `form:"password1" strip:"false" binding:"required"`
	Password2 string `form:"password2" strip:"false" binding:"required"`
}

type loginForm struct {
	Username string `form:"username" binding:"required,max=150"`
	Password string `form:"password" strip:"false" binding:"required"`
	Next     string `form:"next"`
}

// Options tune the account pages.
type Options struct {
	PasswordMinLength int
	LoginRedirectURL  string
}

// Handler serves /login/, /logout/, /register/ and /profile/.
type Handler struct {
	svc  *Service
	log  *slog.Logger
	opts Options
}

func NewHandler(svc *Service, log *slog.Logger, opts Options) *Handler {
	if opts.LoginRedirectURL == "" {
		opts.LoginRedirectURL = "/"
	}
	return &Handler{svc: svc, log: log, opts: opts}
}

// Mount registers the account routes.
func (h *Handler) Mount(r gin.IRouter) {
	r.GET("/login/", h.LoginForm)
	r.POST("/login/", h.Login)
	r.GET("/register/", h.RegisterForm)
	r.POST("/register/", h.Register)
	r.GET("/profile/", auth.RequireLogin(), h.Profile)

	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodPost} {
		r.Handle(m, "/logout/", auth.RequireLogin(), h.Logout)
	}
}

func (h *Handler) RegisterForm(c *gin.Context) {
	render.HTML(c, http.StatusOK, "register.tmpl", render.ViewData{"Title": "Register"})
}

func (h *Handler) Register(c *gin.Context) {
	var in registerForm
	form := forms.Bind(c, &in)

	if in.Username != "" && len(form.FieldErrors("username")) == 0 {
		if msg := ValidateUsername(in.Username); msg != "" {
			form.AddError("username", msg)
		}
	}
	if in.Password1 != "" && in.Password2 != "" {
		if in.Password1 != in.Password2 {
			form.AddError("password2", MsgPasswordsDiffer)
		} else {
			for _, msg := range ValidatePassword(in.Password2, h.opts.PasswordMinLength) {
				form.AddError("password2", msg)
			}
		}
	}

	if form.Valid() {
		u, err := h.svc.Register(c.Request.Context(), in.Username, in.Password1)
		switch {
		case errors.Is(err, ErrUsernameTaken):
			form.AddError("username", "A user with that username already exists.")
		case err != nil:
			render.ServerError(c, h.log, "register user", err)
			return
		default:
			h.log.Info("user registered", "user_id", u.ID, "username", u.Username)
			if err := auth.AddFlash(c, MsgAccountCreated); err != nil {
				h.log.Warn("save flash", "error", err)
			}
			c.Redirect(http.StatusFound, auth.LoginPath)
			return
		}
	}

	render.HTML(c, http.StatusBadRequest, "register.tmpl", render.ViewData{
		"Title": "Register",
		"Form":  form,
	})
}

func (h *Handler) LoginForm(c *gin.Context) {
	render.HTML(c, http.StatusOK, "login.tmpl", render.ViewData{
		"Title": "Log in",
		"Next":  c.Query("next"),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var in loginForm
	form := forms.Bind(c, &in)

	if form.Valid() {
		u, err := h.svc.Authenticate(c.Request.Context(), in.Username, in.Password)
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.log.Info("login failed", "username", in.Username, "ip", c.ClientIP())
			form.AddNonFieldError(MsgBadCredentials)
		case err != nil:
			render.ServerError(c, h.log, "authenticate", err)
			return
		default:
			if err := auth.Login(c, u); err != nil {
				render.ServerError(c, h.log, "save session", err)
				return
			}
			h.log.Info("user logged in", "user_id", u.ID)
			c.Redirect(http.StatusFound, auth.SafeRedirect(in.Next, h.opts.LoginRedirectURL))
			return
		}
	}

	status := http.StatusBadRequest
	if len(form.Errors) == 0 {
		status = http.StatusUnauthorized
	}
	render.HTML(c, status, "login.tmpl", render.ViewData{
		"Title": "Log in",
		"Form":  form,
		"Next":  in.Next,
	})
}

// Logout ends the session on POST only; GET and HEAD get a 404 and leave the
// session untouched.
func (h *Handler) Logout(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		render.NotFound(c)
		return
	}

	u := auth.CurrentUser(c)
	if err := auth.Logout(c); err != nil {
		render.ServerError(c, h.log, "clear session", err)
		return
	}
	if u != nil {
		h.log.Info("user logged out", "user_id", u.ID)
	}
	c.Redirect(http.StatusFound, auth.LoginPath)
}

func (h *Handler) Profile(c *gin.Context) {
	render.HTML(c, http.StatusOK, "profile.tmpl", render.ViewData{"Title": "Profile"})
}
