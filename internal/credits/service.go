package credits

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/events"
	"github.com/capycoin/perkstore/internal/logging"
	"github.com/capycoin/perkstore/internal/models"
)

type Service struct {
	Repo   *GormRepo
	Events events.Publisher
}

func NewService(db *gorm.DB, pub events.Publisher) *Service {
	return &Service{Repo: &GormRepo{DB: db}, Events: pub}
}

func (s *Service) Balance(ctx context.Context, userID uint) (float64, error) {
	return s.Repo.Balance(ctx, userID)
}

func (s *Service) Ledger(ctx context.Context, userID uint, offset, limit int) ([]models.CreditLedgerEntry, error) {
	return s.Repo.Ledger(ctx, userID, offset, limit)
}

// Grant appends a grant entry. Amount may be any non-zero value per the
// admin contract; description is mandatory.
func (s *Service) Grant(ctx context.Context, userID uint, amount float64, description string) (*models.CreditLedgerEntry, error) {
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be non-zero", domain.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description required", domain.ErrValidation)
	}

	var user models.User
	if err := s.Repo.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
		}
		return nil, err
	}

	entry := &models.CreditLedgerEntry{
		UserID:      userID,
		Amount:      amount,
		CreditType:  models.CreditTypeGrant,
		Description: description,
	}
	if err := s.Repo.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.publishGranted(ctx, userID, amount, description)

	return entry, nil
}

type BulkGrantResult struct {
	SuccessfulCount int              `json:"successful_count"`
	FailedCount     int              `json:"failed_count"`
	Successful      []BulkGrantUser  `json:"successful_users"`
	Failed          []BulkGrantError `json:"failed_users"`
	LedgerEntryIDs  []uint           `json:"ledger_entry_ids"`
}

type BulkGrantUser struct {
	UserID   uint   `json:"user_id"`
	UserName string `json:"user_name"`
}

type BulkGrantError struct {
	UserID uint   `json:"user_id"`
	Reason string `json:"reason"`
}

// BulkGrant grants the same amount to several users, reporting per-user
// outcomes rather than failing the whole batch.
func (s *Service) BulkGrant(ctx context.Context, userIDs []uint, amount float64, description string) (*BulkGrantResult, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: user_ids required", domain.ErrValidation)
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be non-zero", domain.ErrValidation)
	}
	if description == "" {
		return nil, fmt.Errorf("%w: description required", domain.ErrValidation)
	}

	result := &BulkGrantResult{}
	for _, userID := range userIDs {
		var user models.User
		if err := s.Repo.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
			result.Failed = append(result.Failed, BulkGrantError{UserID: userID, Reason: "user not found"})
			continue
		}

		entry := &models.CreditLedgerEntry{
			UserID:      userID,
			Amount:      amount,
			CreditType:  models.CreditTypeGrant,
			Description: description,
		}
		if err := s.Repo.Append(ctx, entry); err != nil {
			result.Failed = append(result.Failed, BulkGrantError{UserID: userID, Reason: err.Error()})
			continue
		}

		result.Successful = append(result.Successful, BulkGrantUser{UserID: userID, UserName: user.Name})
		result.LedgerEntryIDs = append(result.LedgerEntryIDs, entry.ID)
		s.publishGranted(ctx, userID, amount, description)
	}

	result.SuccessfulCount = len(result.Successful)
	result.FailedCount = len(result.Failed)
	return result, nil
}

func (s *Service) publishGranted(ctx context.Context, userID uint, amount float64, description string) {
	if s.Events == nil {
		return
	}
	err := s.Events.Publish(ctx, events.TopicCreditEvents, events.EventCreditsGranted,
		[]byte(fmt.Sprint(userID)),
		events.CreditsGrantedPayload{UserID: userID, Amount: amount, Description: description},
	)
	if err != nil {
		logging.FromContext(ctx).Warn("kafka publish failed", "event", events.EventCreditsGranted, "error", err)
	}
}
