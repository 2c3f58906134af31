package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.DB.WithContext(ctx).Preload("Variants").First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) ListActive(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := r.DB.WithContext(ctx).
		Preload("Variants").
		Where("is_active = ?", true).
		Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetVariant(ctx context.Context, id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.DB.WithContext(ctx).First(&variant, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: variant %d", domain.ErrNotFound, id)
		}
		return nil, err
	}
	return &variant, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variantIDs []uint
		if err := tx.Model(&models.ProductVariant{}).Where("product_id = ?", id).Pluck("id", &variantIDs).Error; err != nil {
			return err
		}

		if len(variantIDs) > 0 {
			// Reserved stock backs an open order; removing the lot would
			// leave that order with nothing to commit or release.
			var reserved int64
			err := tx.Model(&models.InventoryLot{}).
				Where("variant_id IN ? AND reserved > 0", variantIDs).
				Count(&reserved).Error
			if err != nil {
				return err
			}
			if reserved > 0 {
				return fmt.Errorf("%w: product %d has variants with reserved stock", domain.ErrConflict, id)
			}

			if err := tx.Where("variant_id IN ?", variantIDs).Delete(&models.InventoryLot{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
				return err
			}
		}

		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
		}
		return nil
	})
}
