package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
)

const (
	StockStatusOut = "out_of_stock"
	StockStatusLow = "low_stock"
	StockStatusIn  = "in_stock"
)

const DefaultLowStockThreshold = 10

type Service struct {
	Repo *GormRepo
}

func NewService(db *gorm.DB) *Service {
	return &Service{Repo: &GormRepo{DB: db}}
}

type AdjustResult struct {
	VariantID  uint   `json:"variant_id"`
	Adjustment int    `json:"adjustment"`
	Quantity   int    `json:"new_quantity"`
	Available  int    `json:"available"`
	Reason     string `json:"reason"`
}

// Adjust applies a signed administrative delta to a variant's total stock.
// Reserved holds are never touched here; only the order lifecycle moves them.
func (s *Service) Adjust(ctx context.Context, variantID uint, delta int, reason string) (*AdjustResult, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: adjustment must be non-zero", domain.ErrValidation)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: reason required", domain.ErrValidation)
	}

	var variant models.ProductVariant
	if err := s.Repo.DB.WithContext(ctx).First(&variant, variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: variant %d", domain.ErrNotFound, variantID)
		}
		return nil, err
	}

	_, err := s.Repo.Lot(ctx, variantID)
	if errors.Is(err, domain.ErrNotFound) {
		if delta < 0 {
			return nil, fmt.Errorf("%w: cannot reduce inventory that doesn't exist", domain.ErrValidation)
		}
		lot, err := s.Repo.CreateLot(ctx, variantID, delta)
		if err != nil {
			return nil, err
		}
		return &AdjustResult{VariantID: variantID, Adjustment: delta, Quantity: lot.Quantity, Available: lot.Available(), Reason: reason}, nil
	}
	if err != nil {
		return nil, err
	}

	lot, err := s.Repo.AdjustQuantity(ctx, variantID, delta)
	if err != nil {
		return nil, err
	}
	return &AdjustResult{VariantID: variantID, Adjustment: delta, Quantity: lot.Quantity, Available: lot.Available(), Reason: reason}, nil
}

// Available reports a variant's purchasable stock; a missing lot counts
// as zero rather than an error.
func (s *Service) Available(ctx context.Context, variantID uint) (int, error) {
	lot, err := s.Repo.Lot(ctx, variantID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return lot.Available(), nil
}

type VariantStock struct {
	ID              uint    `json:"id"`
	Size            string  `json:"size"`
	Color           string  `json:"color"`
	CreditsModifier float64 `json:"credits_modifier"`
	TotalStock      int     `json:"total_stock"`
	Reserved        int     `json:"reserved"`
	Available       int     `json:"available"`
	StockStatus     string  `json:"stock_status"`
}

type ProductStock struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	BaseCredits   float64        `json:"base_credits"`
	TotalVariants int            `json:"total_variants"`
	TotalStock    int            `json:"total_stock"`
	TotalReserved int            `json:"total_reserved"`
	TotalAvail    int            `json:"total_available"`
	Variants      []VariantStock `json:"variants"`
}

func stockStatus(available int) string {
	switch {
	case available == 0:
		return StockStatusOut
	case available < DefaultLowStockThreshold:
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

func (s *Service) Overview(ctx context.Context) ([]ProductStock, error) {
	var products []models.Product
	err := s.Repo.DB.WithContext(ctx).
		Preload("Variants").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	overview := make([]ProductStock, 0, len(products))
	for _, p := range products {
		info := ProductStock{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			BaseCredits:   p.BaseCredits,
			TotalVariants: len(p.Variants),
			Variants:      make([]VariantStock, 0, len(p.Variants)),
		}

		for _, v := range p.Variants {
			lot, err := s.Repo.Lot(ctx, v.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			var quantity, reserved int
			if lot != nil {
				quantity, reserved = lot.Quantity, lot.Reserved
			}

			info.TotalStock += quantity
			info.TotalReserved += reserved
			info.Variants = append(info.Variants, VariantStock{
				ID:              v.ID,
				Size:            v.Size,
				Color:           v.Color,
				CreditsModifier: v.CreditsModifier,
				TotalStock:      quantity,
				Reserved:        reserved,
				Available:       quantity - reserved,
				StockStatus:     stockStatus(quantity - reserved),
			})
		}

		info.TotalAvail = info.TotalStock - info.TotalReserved
		overview = append(overview, info)
	}

	return overview, nil
}

type LowStockItem struct {
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	VariantID    uint   `json:"variant_id"`
	VariantSize  string `json:"variant_size"`
	VariantColor string `json:"variant_color"`
	Available    int    `json:"available"`
	Reserved     int    `json:"reserved"`
	Total        int    `json:"total"`
}

func (s *Service) LowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}

	overview, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]LowStockItem, 0)
	for _, p := range overview {
		for _, v := range p.Variants {
			if v.Available < threshold {
				items = append(items, LowStockItem{
					ProductID:    p.ID,
					ProductName:  p.Name,
					VariantID:    v.ID,
					VariantSize:  v.Size,
					VariantColor: v.Color,
					Available:    v.Available,
					Reserved:     v.Reserved,
					Total:        v.TotalStock,
				})
			}
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Available < items[j].Available })
	return items, nil
}
