package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artwork is one purchasable catalog entry.
type Artwork struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Title       string    `gorm:"column:title;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Artist      string    `gorm:"column:artist;not null;default:''"`
	Category    string    `gorm:"column:category;not null"`
	Medium      string    `gorm:"column:medium;not null;default:''"`
	ImageURL    string    `gorm:"column:image_url;not null;default:''"`
	Price       int64     `gorm:"column:price_amount;not null"`
	Year        int       `gorm:"column:year;not null"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Artwork) TableName() string { return "artworks" }

func (a *Artwork) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
