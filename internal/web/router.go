// Package web assembles the gin engine: middleware, templates, media, routes.
package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gallery/internal/accounts"
	"gallery/internal/auth"
	"gallery/internal/media"
	"gallery/internal/products"
	"gallery/internal/render"
	"gallery/internal/views"
)

// Options configure NewRouter.
type Options struct {
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
	Accounts           accounts.Options
}

// NewRouter wires every route onto a fresh engine.
func NewRouter(db *gorm.DB, store *auth.Store, storage *media.Storage, log *slog.Logger, opts Options) (*gin.Engine, error) {
	tmpl, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := gin.New()
	r.Use(Recovery(log), RequestLogger(log))
	r.SetHTMLTemplate(tmpl)
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	r.Static("/media", storage.Root)
	r.GET("/health", healthHandler(db))

	api := r.Group("/api", newCORS(opts.CORSAllowedOrigins))
	site := r.Group("/",
		auth.Sessions(store),
		auth.LoadUser(db, log, render.InternalError),
		auth.VerifyCSRF(render.Forbidden),
	)

	accounts.NewHandler(accounts.NewService(db), log, opts.Accounts).Mount(site)

	productHandler := products.NewHandler(products.NewService(db, storage, log), log)
	productHandler.Mount(site)
	productHandler.MountAPI(api)

	// NoRoute pages still need the session for the nav bar and CSRF token
	r.NoRoute(auth.Sessions(store), auth.LoadUser(db, log, render.InternalError), render.NotFound)

	return r, nil
}

func newCORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
