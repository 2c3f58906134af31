package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/catalog"
	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/orders"
	"github.com/capycoin/perkstore/internal/transport"
)

// Service is a per-user staging area for line items. It holds no authority:
// prices shown here are for display, and checkout re-validates everything
// through the order service.
type Service struct {
	Repo    *GormRepo
	Catalog *catalog.Service
	Orders  *orders.Service
}

func NewService(db *gorm.DB, cat *catalog.Service, ord *orders.Service) *Service {
	return &Service{Repo: &GormRepo{DB: db}, Catalog: cat, Orders: ord}
}

type Line struct {
	VariantID   uint    `json:"variant_id"`
	Quantity    int     `json:"quantity"`
	UnitCredits float64 `json:"unit_credits"`
	LineCredits float64 `json:"line_credits"`
}

type View struct {
	Items        []Line  `json:"items"`
	TotalCredits float64 `json:"total_credits"`
}

// Get prices each line at the variant's current price; the total is display
// only and is never trusted at checkout.
func (s *Service) Get(ctx context.Context, userID uint) (*View, error) {
	items, err := s.Repo.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &View{Items: make([]Line, 0, len(items))}
	for _, item := range items {
		variant, err := s.Catalog.GetVariant(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		product, err := s.Catalog.GetProduct(ctx, variant.ProductID)
		if err != nil {
			return nil, err
		}

		unit := product.BaseCredits + variant.CreditsModifier
		line := Line{
			VariantID:   item.VariantID,
			Quantity:    item.Quantity,
			UnitCredits: unit,
			LineCredits: unit * float64(item.Quantity),
		}
		view.TotalCredits += line.LineCredits
		view.Items = append(view.Items, line)
	}
	return view, nil
}

// Add merges quantities for a variant already in the cart.
func (s *Service) Add(ctx context.Context, userID uint, req transport.AddCartItemRequest) (*models.CartItem, error) {
	if req.VariantID == 0 {
		return nil, fmt.Errorf("%w: variant_id required", domain.ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", domain.ErrValidation)
	}
	if _, err := s.Catalog.GetVariant(ctx, req.VariantID); err != nil {
		return nil, err
	}

	existing, err := s.Repo.Find(ctx, userID, req.VariantID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		existing.Quantity += req.Quantity
		if err := s.Repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := &models.CartItem{UserID: userID, VariantID: req.VariantID, Quantity: req.Quantity}
	if err := s.Repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SetQuantity replaces a line's quantity; non-positive removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID uint, req transport.SetCartQuantityRequest) error {
	if req.VariantID == 0 {
		return fmt.Errorf("%w: variant_id required", domain.ErrValidation)
	}

	if req.Quantity <= 0 {
		return s.Repo.Delete(ctx, userID, req.VariantID)
	}

	existing, err := s.Repo.Find(ctx, userID, req.VariantID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: variant %d not in cart", domain.ErrNotFound, req.VariantID)
	}

	existing.Quantity = req.Quantity
	return s.Repo.Save(ctx, existing)
}

func (s *Service) Remove(ctx context.Context, userID, variantID uint) error {
	return s.Repo.Delete(ctx, userID, variantID)
}

func (s *Service) Clear(ctx context.Context, userID uint) error {
	return s.Repo.Clear(ctx, userID)
}

// Checkout turns the staged items into an order through the order service
// (which re-validates prices, credits and stock) and clears the cart only
// when creation succeeded.
func (s *Service) Checkout(ctx context.Context, userID uint) (*models.Order, error) {
	items, err := s.Repo.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}

	req := transport.CreateOrderRequest{Items: make([]transport.CreateOrderItem, 0, len(items))}
	for _, item := range items {
		req.Items = append(req.Items, transport.CreateOrderItem{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	order, err := s.Orders.Create(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return order, nil
}
