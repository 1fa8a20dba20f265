package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"gallery/internal/models"
)

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/"},
		{"/new/", "/new/"},
		{"/profile/?tab=1", "/profile/?tab=1"},
		{"//evil.test/", "/"},
		{"/\\evil.test", "/"},
		{"http://evil.test/", "/"},
		{"javascript:alert(1)", "/"},
		{"new/", "/"},
	}
	for _, tt := range tests {
		if got := SafeRedirect(tt.next, "/"); got != tt.want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func TestLoginURL(t *testing.T) {
	if got := LoginURL(""); got != LoginPath {
		t.Errorf("LoginURL(\"\") = %q", got)
	}
	if got := LoginURL("/new/"); got != "/login/?next=%2Fnew%2F" {
		t.Errorf("LoginURL(/new/) = %q", got)
	}
}

// newEngine builds a tiny app: /token prints the CSRF token, /login logs in a
// fake user, /private needs a login, /submit is CSRF protected.
func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := NewStore(nil, StoreOptions{Backend: "cookie", Secret: "test-secret", MaxAge: 3600})

	r := gin.New()
	r.Use(Sessions(store))
	r.Use(VerifyCSRF(func(c *gin.Context) { c.String(http.StatusForbidden, "csrf") }))

	r.GET("/token", func(c *gin.Context) {
		token, err := CSRFToken(c)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.String(http.StatusOK, token)
	})
	r.POST("/login", func(c *gin.Context) {
		u := &models.User{Username: "testuser"}
		u.ID = 7
		if err := Login(c, u); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/private", func(c *gin.Context) {
		// stand-in for LoadUser without a database
		if id, ok := sessions.Default(c).Get(sessionKeyUserID).(uint); ok {
			u := &models.User{Username: "testuser"}
			u.ID = id
			c.Set(ContextUserKey, u)
		}
		c.Next()
	}, RequireLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Username)
	})
	r.POST("/submit", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

type browser struct {
	t       *testing.T
	r       *gin.Engine
	cookies []*http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	b.r.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		b.cookies = set[len(set)-1:]
	}
	return rec
}

func (b *browser) token() string {
	rec := b.do(httptest.NewRequest(http.MethodGet, "/token", nil))
	if rec.Code != http.StatusOK {
		b.t.Fatalf("token status %d", rec.Code)
	}
	return rec.Body.String()
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func TestVerifyCSRF(t *testing.T) {
	b := &browser{t: t, r: newEngine()}
	token := b.token()
	if len(token) != 64 {
		t.Fatalf("unexpected token %q", token)
	}
	if again := b.token(); again != token {
		t.Fatalf("token changed between requests: %q vs %q", token, again)
	}

	if rec := b.post("/submit", url.Values{}); rec.Code != http.StatusForbidden {
		t.Fatalf("missing token: status %d, want 403", rec.Code)
	}
	if rec := b.post("/submit", url.Values{CSRFFormField: {"wrong"}}); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong token: status %d, want 403", rec.Code)
	}
	if rec := b.post("/submit", url.Values{CSRFFormField: {token}}); rec.Code != http.StatusOK {
		t.Fatalf("valid token: status %d, want 200", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(csrfHeader, token)
	if rec := b.do(req); rec.Code != http.StatusOK {
		t.Fatalf("header token: status %d, want 200", rec.Code)
	}
}

func TestLoginRotatesCSRFAndRequireLogin(t *testing.T) {
	b := &browser{t: t, r: newEngine()}

	rec := b.do(httptest.NewRequest(http.MethodGet, "/private", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("anonymous /private: status %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login/?next=%2Fprivate" {
		t.Fatalf("Location = %q", loc)
	}

	before := b.token()
	if rec := b.post("/login", url.Values{CSRFFormField: {before}}); rec.Code != http.StatusNoContent {
		t.Fatalf("login: status %d", rec.Code)
	}
	after := b.token()
	if after == before {
		t.Fatal("CSRF token was not rotated on login")
	}

	rec = b.do(httptest.NewRequest(http.MethodGet, "/private", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "testuser" {
		t.Fatalf("authenticated /private: status %d body %q", rec.Code, rec.Body.String())
	}
}
