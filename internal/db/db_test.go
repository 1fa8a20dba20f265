package db

import (
	"path/filepath"
	"testing"

	"gallery/internal/logger"
	"gallery/internal/models"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "gallery.db")
	conn, err := Open("sqlite", dsn, logger.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	sqlDB, _ := conn.DB()
	defer sqlDB.Close()

	if err := Migrate(conn); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !conn.Migrator().HasTable(&models.User{}) || !conn.Migrator().HasTable(&models.Product{}) {
		t.Fatal("tables were not created")
	}

	u := models.User{Username: "owner", PasswordHash: "x"}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	p := models.Product{OwnerID: u.ID, Name: "n", Description: "d", Image: "product_images/a.jpg"}
	if err := conn.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if err := conn.Delete(&u).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}
	var n int64
	conn.Model(&models.Product{}).Count(&n)
	if n != 0 {
		t.Fatalf("cascade did not remove products, %d left", n)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn", nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
