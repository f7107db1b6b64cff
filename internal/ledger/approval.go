package ledger

import (
	"errors"
	"fmt"

	"github.com/dipandhali2021/jims-sub002/internal/models"

	"gorm.io/gorm"
)

// Approval workflow: Pending → Approved (persists) or Rejected
// (row is hard-deleted, no audit retention). ApprovedByID is written
// exactly once, at approval time; approving twice is a conflict.

// ApproveCounterparty marks a pending counterparty approved. Status is
// kept as-is when already set, defaulting to Active.
func ApproveCounterparty(db *gorm.DB, id, adminID uint) (*models.Counterparty, error) {
	var cp models.Counterparty
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load counterparty: %w", err)
		}
		if cp.IsApproved {
			return ErrAlreadyApproved
		}

		status := cp.Status
		if status == "" {
			status = models.StatusActive
		}
		updates := map[string]interface{}{
			"is_approved":    true,
			"approved_by_id": adminID,
			"status":         status,
		}
		if err := tx.Model(&cp).Updates(updates).Error; err != nil {
			return fmt.Errorf("approve counterparty: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// RejectCounterparty deletes a pending counterparty outright.
func RejectCounterparty(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var cp models.Counterparty
		if err := tx.First(&cp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load counterparty: %w", err)
		}
		if cp.IsApproved {
			return ErrAlreadyApproved
		}
		return tx.Delete(&cp).Error
	})
}

// ApproveTransaction approves one pending khata entry.
func ApproveTransaction(db *gorm.DB, id, adminID uint) (*models.LedgerTransaction, error) {
	var txn models.LedgerTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load transaction: %w", err)
		}
		if txn.IsApproved {
			return ErrAlreadyApproved
		}
		return tx.Model(&txn).Updates(map[string]interface{}{
			"is_approved":    true,
			"approved_by_id": adminID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// RejectTransaction deletes a pending khata entry.
func RejectTransaction(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var txn models.LedgerTransaction
		if err := tx.First(&txn, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load transaction: %w", err)
		}
		if txn.IsApproved {
			return ErrAlreadyApproved
		}
		return tx.Delete(&txn).Error
	})
}

// ApprovePayment approves one pending payment.
func ApprovePayment(db *gorm.DB, id, adminID uint) (*models.Payment, error) {
	var pay models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&pay, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load payment: %w", err)
		}
		if pay.IsApproved {
			return ErrAlreadyApproved
		}
		return tx.Model(&pay).Updates(map[string]interface{}{
			"is_approved":    true,
			"approved_by_id": adminID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

// RejectPayment deletes a pending payment.
func RejectPayment(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var pay models.Payment
		if err := tx.First(&pay, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load payment: %w", err)
		}
		if pay.IsApproved {
			return ErrAlreadyApproved
		}
		return tx.Delete(&pay).Error
	})
}
