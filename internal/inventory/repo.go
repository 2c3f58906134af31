package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Lot(ctx context.Context, variantID uint) (*models.InventoryLot, error) {
	var lot models.InventoryLot
	err := r.DB.WithContext(ctx).Where("variant_id = ?", variantID).First(&lot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventory for variant %d", domain.ErrNotFound, variantID)
		}
		return nil, err
	}
	return &lot, nil
}

// The guarded updates below are the only writers of quantity/reserved
// outside explicit admin adjustment. Each carries its invariant in the
// WHERE clause so a violating update matches zero rows and the enclosing
// transaction rolls back; this serializes concurrent lifecycle transitions
// touching the same variant without SELECT FOR UPDATE.

// Reserve places a hold: reserved += qty, only while available >= qty.
func Reserve(tx *gorm.DB, variantID uint, qty int) error {
	res := tx.Exec(`
		UPDATE inventory_lots SET reserved = reserved + ?, updated_at = ?
		WHERE variant_id = ? AND quantity - reserved >= ?`,
		qty, time.Now().UTC(), variantID, qty,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: variant %d", domain.ErrVariantUnavailable, variantID)
	}
	return nil
}

// Release drops a hold without touching total stock.
func Release(tx *gorm.DB, variantID uint, qty int) error {
	res := tx.Exec(`
		UPDATE inventory_lots SET reserved = reserved - ?, updated_at = ?
		WHERE variant_id = ? AND reserved >= ?`,
		qty, time.Now().UTC(), variantID, qty,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("release hold on variant %d: reserved below %d", variantID, qty)
	}
	return nil
}

// Commit converts a hold into a permanent deduction: quantity and reserved
// both drop by qty, leaving available unchanged.
func Commit(tx *gorm.DB, variantID uint, qty int) error {
	res := tx.Exec(`
		UPDATE inventory_lots SET quantity = quantity - ?, reserved = reserved - ?, updated_at = ?
		WHERE variant_id = ? AND reserved >= ? AND quantity >= ?`,
		qty, qty, time.Now().UTC(), variantID, qty, qty,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("commit hold on variant %d: reserved below %d", variantID, qty)
	}
	return nil
}

// AdjustQuantity applies a signed delta to total stock, refusing any result
// below the reserved hold (which would make available negative).
func (r *GormRepo) AdjustQuantity(ctx context.Context, variantID uint, delta int) (*models.InventoryLot, error) {
	res := r.DB.WithContext(ctx).Exec(`
		UPDATE inventory_lots SET quantity = quantity + ?, updated_at = ?
		WHERE variant_id = ? AND quantity + ? >= reserved`,
		delta, time.Now().UTC(), variantID, delta,
	)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		lot, err := r.Lot(ctx, variantID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: cannot reduce stock below reserved quantity (%d)", domain.ErrValidation, lot.Reserved)
	}
	return r.Lot(ctx, variantID)
}

func (r *GormRepo) CreateLot(ctx context.Context, variantID uint, quantity int) (*models.InventoryLot, error) {
	lot := &models.InventoryLot{VariantID: variantID, Quantity: quantity}
	if err := r.DB.WithContext(ctx).Create(lot).Error; err != nil {
		return nil, err
	}
	return lot, nil
}
