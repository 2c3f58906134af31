package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/events"
	"github.com/capycoin/perkstore/internal/inventory"
	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/transport"
)

type Service struct {
	Repo   *GormRepo
	Events events.Publisher
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	return &Service{Repo: &GormRepo{DB: db}, Events: pub}
}

// Create checks out a set of variant line items for a user: it snapshots
// unit prices, debits the credit ledger, places inventory holds and writes
// the pending order, all in one transaction. Any failure leaves no trace.
func (s *Service) Create(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", domain.ErrValidation)
	}
	for _, item := range req.Items {
		if item.VariantID == 0 {
			return nil, fmt.Errorf("%w: variant_id required", domain.ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", domain.ErrValidation)
		}
	}

	var order *models.Order
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, item := range req.Items {
			var variant models.ProductVariant
			if err := tx.First(&variant, item.VariantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: variant %d", domain.ErrNotFound, item.VariantID)
				}
				return err
			}

			var product models.Product
			if err := tx.First(&product, variant.ProductID).Error; err != nil {
				return err
			}
			if !product.IsActive {
				return fmt.Errorf("%w: variant %d belongs to an inactive product", domain.ErrVariantUnavailable, item.VariantID)
			}

			unit := product.BaseCredits + variant.CreditsModifier
			lineTotal := unit * float64(item.Quantity)
			total += lineTotal

			items = append(items, models.OrderItem{
				VariantID:    item.VariantID,
				Quantity:     item.Quantity,
				UnitCredits:  unit,
				TotalCredits: lineTotal,
			})
		}

		order = &models.Order{
			UserID:       userID,
			Status:       StatusPending,
			TotalCredits: total,
			Items:        items,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := inventory.Reserve(tx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("Order #%d - Pending Approval", order.ID)
		return credits.DebitIfSufficient(tx, userID, total, desc, order.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventOrderCreated, order, "")
	return order, nil
}

// Approve converts an open order's holds into permanent stock deductions.
// Credits were captured at creation; the ledger is untouched.
func (s *Service) Approve(ctx context.Context, orderID uint) (*models.Order, error) {
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transition(tx, orderID, StatusCompleted); err != nil {
			return err
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := inventory.Commit(tx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventOrderApproved, order, "")
	return order, nil
}

// Reject releases an open order's holds and refunds the snapshot total as a
// new adjust entry referencing the order.
func (s *Service) Reject(ctx context.Context, orderID uint, reason string) (*models.Order, error) {
	err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", domain.ErrNotFound, orderID)
			}
			return err
		}

		if err := transition(tx, orderID, StatusCancelled); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := inventory.Release(tx, item.VariantID, item.Quantity); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("Order #%d - Refund (Rejected)", orderID)
		if reason != "" {
			desc += ": " + reason
		}
		return credits.Refund(tx, order.UserID, order.TotalCredits, desc, orderID)
	})
	if err != nil {
		return nil, err
	}

	order, err := s.Repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventOrderRejected, order, reason)
	return order, nil
}

func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.Repo.Get(ctx, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListByUser(ctx, userID, offset, limit)
}

func (s *Service) ListAll(ctx context.Context, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListAll(ctx, offset, limit)
}

func (s *Service) ListOpen(ctx context.Context, offset, limit int) ([]models.Order, error) {
	return s.Repo.ListOpen(ctx, offset, limit)
}

func (s *Service) publish(ctx context.Context, eventType string, order *models.Order, reason string) {
	if s.Events == nil {
		return
	}

	payload := events.OrderPayload{
		OrderID:      order.ID,
		UserID:       order.UserID,
		Status:       order.Status,
		TotalCredits: order.TotalCredits,
		Reason:       reason,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, events.OrderItemPayload{VariantID: item.VariantID, Quantity: item.Quantity})
	}

	err := s.Events.Publish(ctx, events.TopicOrderEvents, eventType, []byte(fmt.Sprint(order.ID)), payload)
	if err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "event", eventType, "error", err)
	}
}
