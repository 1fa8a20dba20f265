package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gallery/internal/accounts"
	"gallery/internal/auth"
	"gallery/internal/config"
	mydb "gallery/internal/db"
	"gallery/internal/logger"
	"gallery/internal/media"
	"gallery/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	gin.SetMode(cfg.GinMode)

	db, err := mydb.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	if err := mydb.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	storage, err := media.NewStorage(cfg.MediaRoot)
	if err != nil {
		return err
	}

	store := auth.NewStore(db, auth.StoreOptions{
		Backend: cfg.SessionBackend,
		Secret:  cfg.SessionSecret,
		MaxAge:  cfg.SessionMaxAge,
		Secure:  cfg.GinMode == gin.ReleaseMode,
	})

	router, err := web.NewRouter(db, store, storage, log, web.Options{
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Accounts: accounts.Options{
			PasswordMinLength: cfg.PasswordMinLength,
			LoginRedirectURL:  cfg.LoginRedirectURL,
		},
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"addr", srv.Addr,
			"mode", cfg.GinMode,
			"db_driver", cfg.DBDriver,
			"session_backend", cfg.SessionBackend,
			"media_root", cfg.MediaRoot,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
