package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StoreOptions configure the session backend.
type StoreOptions struct {
	Backend string // "cookie" keeps state in a signed cookie, "db" in a sessions table
	Secret  string
	MaxAge  int
	Secure  bool
}

// contextOptionsKey carries the store's cookie options to Login.
const contextOptionsKey = "sessionOptions"

// Store is a session store together with the cookie options it was built
// with.
type Store struct {
	sessions.Store
	options sessions.Options
}

// NewStore builds the session store. The db backend creates its table on
// first use and purges expired rows hourly.
func NewStore(db *gorm.DB, opts StoreOptions) *Store {
	var store sessions.Store
	switch opts.Backend {
	case "db":
		store = gormsessions.NewStore(db, true, []byte(opts.Secret))
	default:
		store = cookie.NewStore([]byte(opts.Secret))
	}
	options := sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.Options(options)
	return &Store{Store: store, options: options}
}

// Sessions is the gin middleware for store.
func Sessions(store *Store) gin.HandlerFunc {
	handler := sessions.Sessions(SessionCookieName, store)
	return func(c *gin.Context) {
		c.Set(contextOptionsKey, store.options)
		handler(c)
	}
}
