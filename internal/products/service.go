// Package products implements the product gallery: listing and creation.
package products

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gallery/internal/media"
	"gallery/internal/models"
)

// ImageDir is where product images live under the media root.
const ImageDir = "product_images"

// NewProduct is a validated creation request. The owner always comes from
// the session, never from the submitted form.
type NewProduct struct {
	OwnerID     uint
	Name        string
	Description string
	Image       *multipart.FileHeader
}

type Service struct {
	db      *gorm.DB
	storage *media.Storage
	log     *slog.Logger
}

func NewService(db *gorm.DB, storage *media.Storage, log *slog.Logger) *Service {
	return &Service{db: db, storage: storage, log: log}
}

// Create stores the image and inserts the row. If the insert fails the stored
// file is removed again.
func (s *Service) Create(ctx context.Context, in NewProduct) (*models.Product, error) {
	stored, err := s.storage.Save(ImageDir, in.Image)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		OwnerID:          in.OwnerID,
		Name:             in.Name,
		Description:      in.Description,
		Image:            stored.Name,
		ImageContentType: stored.ContentType,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		if rmErr := s.storage.Delete(stored.Name); rmErr != nil {
			s.log.Warn("remove orphaned upload", "file", stored.Name, "error", rmErr)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// List returns every product by name, ties in insertion order, owners loaded.
func (s *Service) List(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	err := s.db.WithContext(ctx).
		Preload("Owner").
		Order("name ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}
