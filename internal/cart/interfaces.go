package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muraqqa/storefront/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, record *models.Cart) (*models.Cart, error)
	ReplaceLines(ctx context.Context, cartID uuid.UUID, lines []models.CartLine) error
}

// ProductLoader resolves the authoritative price of catalog entries.
type ProductLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
