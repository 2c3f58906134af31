package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/events"
	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/transport"
)

// Indexer feeds the product search index. Index updates are best-effort:
// a failure is logged, never surfaced to the caller of a catalog mutation.
type Indexer interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
}

type Service struct {
	Repo    *GormRepo
	Events  events.Publisher
	Indexer Indexer
}

func NewService(db *gorm.DB, pub events.Publisher, idx Indexer) *Service {
	return &Service{Repo: &GormRepo{DB: db}, Events: pub, Indexer: idx}
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *Service) ListActive(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListActive(ctx, offset, limit)
}

func (s *Service) GetVariant(ctx context.Context, id uint) (*models.ProductVariant, error) {
	return s.Repo.GetVariant(ctx, id)
}

// CreateProduct creates a product with its variants and initial stock. When
// no variants are supplied a default zero-modifier, zero-stock variant is
// synthesized so every orderable product has at least one.
func (s *Service) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", domain.ErrValidation)
	}
	if req.BaseCredits < 0 {
		return nil, fmt.Errorf("%w: base_credits must be >= 0", domain.ErrValidation)
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		BaseCredits: req.BaseCredits,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}

	variants := req.Variants
	if len(variants) == 0 {
		variants = []transport.VariantInput{{}}
	}

	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		for _, v := range variants {
			variant := models.ProductVariant{
				ProductID:       product.ID,
				Size:            v.Size,
				Color:           v.Color,
				CreditsModifier: v.CreditsModifier,
			}
			if err := tx.Create(&variant).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.InventoryLot{VariantID: variant.ID, Quantity: v.Quantity}).Error; err != nil {
				return err
			}
			product.Variants = append(product.Variants, variant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, product)
	s.publish(ctx, events.EventProductCreated, product.ID, product.Name)
	return product, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uint, req transport.UpdateProductRequest) (*models.Product, error) {
	product, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.BaseCredits != nil {
		if *req.BaseCredits < 0 {
			return nil, fmt.Errorf("%w: base_credits must be >= 0", domain.ErrValidation)
		}
		product.BaseCredits = *req.BaseCredits
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.Repo.DB.WithContext(ctx).Omit("Variants").Save(product).Error; err != nil {
		return nil, err
	}

	s.index(ctx, product)
	s.publish(ctx, events.EventProductUpdated, product.ID, product.Name)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search index delete failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, events.EventProductDeleted, id, "")
	return nil
}

// CreateVariant adds a variant to a product, with an inventory lot when an
// initial quantity is supplied.
func (s *Service) CreateVariant(ctx context.Context, productID uint, input transport.VariantInput) (*models.ProductVariant, error) {
	if input.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", domain.ErrValidation)
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	variant := &models.ProductVariant{
		ProductID:       productID,
		Size:            input.Size,
		Color:           input.Color,
		CreditsModifier: input.CreditsModifier,
	}
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(variant).Error; err != nil {
			return err
		}
		return tx.Create(&models.InventoryLot{VariantID: variant.ID, Quantity: input.Quantity}).Error
	})
	if err != nil {
		return nil, err
	}
	return variant, nil
}

// UpdateVariant updates an existing variant identified by its id; callers
// distinguish new from existing variants by id presence in the request, not
// by any id-range convention.
func (s *Service) UpdateVariant(ctx context.Context, productID, variantID uint, input transport.VariantInput) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := s.Repo.DB.WithContext(ctx).
		Where("id = ? AND product_id = ?", variantID, productID).
		First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: variant %d", domain.ErrNotFound, variantID)
		}
		return nil, err
	}

	variant.Size = input.Size
	variant.Color = input.Color
	variant.CreditsModifier = input.CreditsModifier
	if err := s.Repo.DB.WithContext(ctx).Save(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// DeleteVariant removes a variant and its inventory lot. A variant whose lot
// still holds reservations backs an open order, so deleting it would strand
// that order with no stock to commit or release; such deletes are refused.
func (s *Service) DeleteVariant(ctx context.Context, productID, variantID uint) error {
	return s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reserved int64
		err := tx.Model(&models.InventoryLot{}).
			Where("variant_id = ? AND reserved > 0", variantID).
			Count(&reserved).Error
		if err != nil {
			return err
		}
		if reserved > 0 {
			return fmt.Errorf("%w: variant %d has reserved stock", domain.ErrConflict, variantID)
		}

		res := tx.Where("id = ? AND product_id = ?", variantID, productID).Delete(&models.ProductVariant{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: variant %d", domain.ErrNotFound, variantID)
		}
		return tx.Where("variant_id = ?", variantID).Delete(&models.InventoryLot{}).Error
	})
}

func (s *Service) index(ctx context.Context, product *models.Product) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexProduct(ctx, product); err != nil {
		logging.FromContext(ctx).Warn("search index update failed", "product_id", product.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, productID uint, name string) {
	if s.Events == nil {
		return
	}
	err := s.Events.Publish(ctx, events.TopicProductEvents, eventType,
		[]byte(fmt.Sprint(productID)),
		events.ProductPayload{ProductID: productID, Name: name},
	)
	if err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "event", eventType, "error", err)
	}
}
