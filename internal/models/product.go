package models

import "path"

// NameMaxLen caps products.name.
const NameMaxLen = 100

// Product is the products table. Rows are immutable once created.
type Product struct {
	Base
	OwnerID          uint   `gorm:"index;not null" json:"owner_id"`
	Owner            User   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner"`
	Name             string `gorm:"size:100;not null;index" json:"name"`
	Description      string `gorm:"type:text;not null" json:"description"`
	Image            string `gorm:"not null" json:"image"` // relative to MEDIA_ROOT, e.g. "product_images/abc.jpg"
	ImageContentType string `gorm:"size:100" json:"image_content_type"`
}

func (p Product) String() string { return p.Name }

// ImageName is the stored file's base name.
func (p Product) ImageName() string { return path.Base(p.Image) }
