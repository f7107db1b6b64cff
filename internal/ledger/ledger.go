package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/dipandhali2021/jims-sub002/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ComputeBalance recomputes a counterparty's outstanding balance from
// its approved rows. There is no stored running balance and no cache;
// every call goes back to the source rows.
func ComputeBalance(db *gorm.DB, counterpartyID uint) (int64, error) {
	var cp models.Counterparty
	if err := db.First(&cp, counterpartyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("load counterparty: %w", err)
	}

	policy, err := PolicyFor(cp.Kind)
	if err != nil {
		return 0, err
	}

	var txnTotal, payTotal int64
	if err := db.Model(&models.LedgerTransaction{}).
		Where("counterparty_id = ? AND is_approved = ?", counterpartyID, true).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&txnTotal).Error; err != nil {
		return 0, fmt.Errorf("sum transactions: %w", err)
	}
	if err := db.Model(&models.Payment{}).
		Where("counterparty_id = ? AND is_approved = ?", counterpartyID, true).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&payTotal).Error; err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}

	return policy.Balance(txnTotal, payTotal), nil
}

// NextDocumentID draws the next number for a document prefix and year
// and formats it as {PREFIX}-{year}-{seq4}. The upsert-and-increment on
// document_sequences must run inside the same transaction that inserts
// the document, which is what makes concurrent creations safe.
func NextDocumentID(tx *gorm.DB, prefix string, year int) (string, error) {
	key := fmt.Sprintf("%s-%d", prefix, year)

	seq := models.DocumentSequence{Prefix: key, Next: 2}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prefix"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"next": gorm.Expr("next + 1")}),
	}).Create(&seq).Error; err != nil {
		return "", fmt.Errorf("bump sequence %s: %w", key, err)
	}

	var row models.DocumentSequence
	if err := tx.First(&row, "prefix = ?", key).Error; err != nil {
		return "", fmt.Errorf("read sequence %s: %w", key, err)
	}

	return fmt.Sprintf("%s-%04d", key, row.Next-1), nil
}

// CreateTransaction inserts a khata entry against an approved
// counterparty. Admin creators skip the pending state entirely.
func CreateTransaction(db *gorm.DB, counterpartyID uint, amount int64, description, items string, creator *models.User) (*models.LedgerTransaction, error) {
	var cp models.Counterparty
	if err := db.First(&cp, counterpartyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load counterparty: %w", err)
	}
	if !cp.IsApproved {
		return nil, ErrNotApproved
	}

	policy, err := PolicyFor(cp.Kind)
	if err != nil {
		return nil, err
	}

	txn := models.LedgerTransaction{
		CounterpartyID: counterpartyID,
		Amount:         amount,
		Description:    description,
		Items:          items,
		CreatedByID:    creator.ID,
	}
	if creator.IsAdmin() {
		txn.IsApproved = true
		adminID := creator.ID
		txn.ApprovedByID = &adminID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		id, err := NextDocumentID(tx, policy.TxnPrefix, time.Now().Year())
		if err != nil {
			return err
		}
		txn.TransactionID = id
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// CreatePayment inserts a payment against an approved counterparty.
func CreatePayment(db *gorm.DB, counterpartyID uint, amount int64, mode, reference, notes string, creator *models.User) (*models.Payment, error) {
	var cp models.Counterparty
	if err := db.First(&cp, counterpartyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load counterparty: %w", err)
	}
	if !cp.IsApproved {
		return nil, ErrNotApproved
	}

	policy, err := PolicyFor(cp.Kind)
	if err != nil {
		return nil, err
	}

	pay := models.Payment{
		CounterpartyID:  counterpartyID,
		Amount:          amount,
		PaymentMode:     mode,
		ReferenceNumber: reference,
		Notes:           notes,
		CreatedByID:     creator.ID,
	}
	if creator.IsAdmin() {
		pay.IsApproved = true
		adminID := creator.ID
		pay.ApprovedByID = &adminID
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		id, err := NextDocumentID(tx, policy.PayPrefix, time.Now().Year())
		if err != nil {
			return err
		}
		pay.PaymentID = id
		return tx.Create(&pay).Error
	})
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

// CanView reports whether a user may see an unapproved counterparty.
// Approved counterparties are visible to everyone; pending ones only to
// their creator and admins. Callers answer NotFound, not Forbidden, so
// hidden rows do not leak their existence.
func CanView(cp *models.Counterparty, user *models.User) bool {
	return cp.IsApproved || cp.CreatedByID == user.ID || user.IsAdmin()
}
