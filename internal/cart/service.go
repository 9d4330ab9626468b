package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muraqqa/storefront/pkg/db"
	"github.com/muraqqa/storefront/pkg/db/models"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
)

// AddLineInput is the payload for adding a catalog entry to the cart.
type AddLineInput struct {
	ProductID     uuid.UUID `json:"productId" validate:"required"`
	UnitReference string    `json:"unitReference" validate:"max=64"`
	Quantity      int       `json:"quantity" validate:"required,min=1,max=99"`
}

// Service exposes the server-side cart, mirroring the Aggregate semantics.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*Aggregate, error)
	AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*Aggregate, error)
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, unitReference string, quantity int) (*Aggregate, error)
	RemoveLine(ctx context.Context, userID, productID uuid.UUID, unitReference string) (*Aggregate, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products ProductLoader
}

// NewService builds the cart service.
func NewService(repo CartRepository, tx txRunner, products ProductLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// Get returns the shopper's cart; a shopper without one gets an empty cart.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*Aggregate, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewAggregate(), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return aggregateFromModel(record), nil
}

// AddLine prices the entry from the catalog and merges it into the cart.
func (s *service) AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*Aggregate, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	artwork, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	ref := strings.TrimSpace(input.UnitReference)
	return s.mutate(ctx, userID, func(agg *Aggregate) error {
		wanted := input.Quantity
		for _, line := range agg.Lines() {
			if line.ProductID == artwork.ID && line.UnitReference == ref {
				wanted += line.Quantity
			}
		}
		if wanted > artwork.Stock {
			return pkgerrors.New(pkgerrors.CodeConflict, "not enough stock").
				WithDetails(map[string]any{"available": artwork.Stock, "requested": wanted})
		}
		return agg.AddLine(Line{
			ProductID:     artwork.ID,
			UnitReference: ref,
			Title:         artwork.Title,
			Quantity:      input.Quantity,
			UnitPrice:     artwork.Price,
		})
	})
}

func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, unitReference string, quantity int) (*Aggregate, error) {
	return s.mutate(ctx, userID, func(agg *Aggregate) error {
		return agg.SetQuantity(productID, strings.TrimSpace(unitReference), quantity)
	})
}

// RemoveLine succeeds even when the line is already gone.
func (s *service) RemoveLine(ctx context.Context, userID, productID uuid.UUID, unitReference string) (*Aggregate, error) {
	return s.mutate(ctx, userID, func(agg *Aggregate) error {
		agg.RemoveLine(productID, strings.TrimSpace(unitReference))
		return nil
	})
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := s.mutate(ctx, userID, func(agg *Aggregate) error {
		agg.Clear()
		return nil
	})
	return err
}

func (s *service) mutate(ctx context.Context, userID uuid.UUID, apply func(*Aggregate) error) (*Aggregate, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var result *Aggregate
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByUser(ctx, userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
			}
			record, err = repo.Create(ctx, &models.Cart{UserID: userID})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
			}
		}

		agg := aggregateFromModel(record)
		if err := apply(agg); err != nil {
			return err
		}
		if err := repo.ReplaceLines(ctx, record.ID, linesToModels(agg.Lines())); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was modified concurrently")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart lines")
		}
		result = agg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func aggregateFromModel(record *models.Cart) *Aggregate {
	agg := &Aggregate{}
	for _, line := range record.Lines {
		agg.lines = append(agg.lines, Line{
			ProductID:     line.ProductID,
			UnitReference: line.UnitReference,
			Title:         line.Title,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			FinalPrice:    line.FinalPrice,
		})
	}
	return agg
}

func linesToModels(lines []Line) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, models.CartLine{
			ProductID:     line.ProductID,
			UnitReference: line.UnitReference,
			Title:         line.Title,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			FinalPrice:    line.FinalPrice,
		})
	}
	return out
}
