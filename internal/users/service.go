package users

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/auth"
	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
	"github.com/capycoin/perkstore/internal/transport"
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

type ImportFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Count    int             `json:"count"`
	Imported []models.User   `json:"imported"`
	Failed   []ImportFailure `json:"failed,omitempty"`
}

// Import creates accounts in bulk (e.g. from an HR export) and grants each
// its role's initial credits. Rows are independent: a bad or duplicate row
// is reported in the result and never aborts the rest of the batch. The
// account and its initial grant commit together per row.
func (s *Service) Import(ctx context.Context, rows []transport.UserImport) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no users supplied", domain.ErrValidation)
	}

	result := &ImportResult{}
	for _, row := range rows {
		if row.Email == "" || row.Name == "" {
			result.Failed = append(result.Failed, ImportFailure{Email: row.Email, Reason: "email and name required"})
			continue
		}

		role := row.Role
		if role == "" {
			role = models.RoleEmployee
		}

		startDate := time.Now().UTC()
		if row.StartDate != "" {
			parsed, err := time.Parse("2006-01-02", row.StartDate)
			if err != nil {
				result.Failed = append(result.Failed, ImportFailure{Email: row.Email, Reason: fmt.Sprintf("bad start_date %q", row.StartDate)})
				continue
			}
			startDate = parsed
		}

		var existing int64
		if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", row.Email).Count(&existing).Error; err != nil {
			return nil, err
		}
		if existing > 0 {
			result.Failed = append(result.Failed, ImportFailure{Email: row.Email, Reason: "email already registered"})
			continue
		}

		user := models.User{
			Email:     row.Email,
			Name:      row.Name,
			Role:      role,
			StartDate: startDate,
			IsActive:  true,
		}
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&models.CreditLedgerEntry{
				UserID:      user.ID,
				Amount:      auth.InitialCredits(user.Role),
				CreditType:  models.CreditTypeGrant,
				Description: fmt.Sprintf("Initial credits for %s", user.Role),
			}).Error
		})
		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Email: row.Email, Reason: err.Error()})
			continue
		}

		result.Imported = append(result.Imported, user)
	}

	result.Count = len(result.Imported)
	return result, nil
}
