package credits

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/capycoin/perkstore/internal/domain"
	"github.com/capycoin/perkstore/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Balance(ctx context.Context, userID uint) (float64, error) {
	var balance float64
	err := r.DB.WithContext(ctx).
		Model(&models.CreditLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *GormRepo) Ledger(ctx context.Context, userID uint, offset, limit int) ([]models.CreditLedgerEntry, error) {
	var entries []models.CreditLedgerEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormRepo) Append(ctx context.Context, entry *models.CreditLedgerEntry) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

// DebitIfSufficient appends a debit entry only when the derived balance
// covers the amount. The user's row is locked first: same-user debits
// serialize on it, and the guarded insert that follows sums a ledger that
// already contains every committed debit. The aggregate check alone has no
// row to anchor a lock on, so it must not run unserialized.
func DebitIfSufficient(tx *gorm.DB, userID uint, amount float64, description string, orderID uint) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", domain.ErrValidation)
	}

	lock := tx.Exec(`UPDATE users SET updated_at = ? WHERE id = ?`, time.Now().UTC(), userID)
	if lock.Error != nil {
		return lock.Error
	}
	if lock.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, userID)
	}

	res := tx.Exec(`
		INSERT INTO credit_ledger_entries (user_id, amount, credit_type, description, reference_order_id, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE (SELECT COALESCE(SUM(amount), 0) FROM credit_ledger_entries WHERE user_id = ?) >= ?`,
		userID, -amount, models.CreditTypeDebit, description, orderID, time.Now().UTC(),
		userID, amount,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: balance below %.2f", domain.ErrInsufficientCredits, amount)
	}
	return nil
}

// Refund appends an adjust entry crediting back the order's snapshot total.
func Refund(tx *gorm.DB, userID uint, amount float64, description string, orderID uint) error {
	return tx.Create(&models.CreditLedgerEntry{
		UserID:           userID,
		Amount:           amount,
		CreditType:       models.CreditTypeAdjust,
		Description:      description,
		ReferenceOrderID: &orderID,
	}).Error
}
