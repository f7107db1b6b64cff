package cascade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/models"

	"gorm.io/gorm"
)

// ErrSelfDelete rejects an admin deleting their own account.
var ErrSelfDelete = errors.New("cannot delete own account")

// IdentityProvider is the external auth/session service holding a
// mirror account per user. Deletion there happens after the local
// transaction commits and is best-effort.
type IdentityProvider interface {
	DeleteAccount(ctx context.Context, userID uint) error
}

// NoopIdentityProvider is used when no external provider is configured.
type NoopIdentityProvider struct{}

func (NoopIdentityProvider) DeleteAccount(context.Context, uint) error { return nil }

// DeleteUser removes a user while preserving historical records.
// Ordering is strict (children before parents) and everything runs in
// one serializable transaction: either the whole cascade applies or
// none of it does. ctx should carry an extended timeout; the cascade
// touches every table a large account may own.
//
// After the commit the identity-provider account is deleted
// best-effort; a failure there is logged, not rolled back.
func DeleteUser(ctx context.Context, db *gorm.DB, idp IdentityProvider, targetID, actorID uint) error {
	if targetID == actorID {
		return ErrSelfDelete
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.First(&target, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		// fallback admin inherits live records; nil when the target
		// was the last admin standing
		var newOwnerID *uint
		var fallback models.User
		err := tx.Where("role = ? AND id <> ?", models.RoleAdmin, targetID).
			Order("id ASC").
			First(&fallback).Error
		switch {
		case err == nil:
			newOwnerID = &fallback.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// no admin left; products are deleted instead of reassigned
		default:
			return fmt.Errorf("find fallback admin: %w", err)
		}

		if err := reassignOrDeleteProducts(tx, targetID, newOwnerID); err != nil {
			return err
		}
		if err := reassignRequests(tx, targetID, newOwnerID); err != nil {
			return err
		}

		// personal records go unconditionally
		if err := tx.Where("user_id = ?", targetID).Delete(&models.Todo{}).Error; err != nil {
			return fmt.Errorf("delete todos: %w", err)
		}
		if err := tx.Where("created_by_id = ?", targetID).Delete(&models.LedgerTransaction{}).Error; err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&models.Notification{}).Error; err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		if err := tx.Where("user_id = ?", targetID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}

		if err := tx.Delete(&models.User{}, targetID).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}

	// committed locally; the identity-provider mirror is best-effort
	if idp != nil {
		if err := idp.DeleteAccount(ctx, targetID); err != nil {
			log.Printf("identity provider delete for user %d failed: %v", targetID, err)
		}
	}
	return nil
}

// reassignOrDeleteProducts hands the target's products to the fallback
// admin, or deletes them when no admin remains. Sales items referencing
// those products are detached first in either branch, so the sale
// history never depends on what happens to the product rows.
func reassignOrDeleteProducts(tx *gorm.DB, targetID uint, newOwnerID *uint) error {
	var products []models.Product
	if err := tx.Where("created_by_id = ?", targetID).Find(&products).Error; err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	for i := range products {
		if err := DetachSalesItems(tx, &products[i]); err != nil {
			return err
		}
	}

	if newOwnerID != nil {
		return wrap(tx.Model(&models.Product{}).
			Where("created_by_id = ?", targetID).
			Update("created_by_id", *newOwnerID).Error, "reassign products")
	}
	return wrap(tx.Where("created_by_id = ?", targetID).
		Delete(&models.Product{}).Error, "delete products")
}

// reassignRequests drops the target's pending sales and product
// requests and hands completed/approved ones to the fallback admin.
// With no admin left the completed rows keep the deleted user's id;
// behavior is deliberate even though the reference dangles.
func reassignRequests(tx *gorm.DB, targetID uint, newOwnerID *uint) error {
	if err := tx.Where("created_by_id = ? AND status = ?", targetID, models.SaleStatusPending).
		Delete(&models.SalesRequest{}).Error; err != nil {
		return fmt.Errorf("delete pending sales: %w", err)
	}
	if err := tx.Where("requested_by_id = ? AND is_approved = ?", targetID, false).
		Delete(&models.ProductRequest{}).Error; err != nil {
		return fmt.Errorf("delete pending product requests: %w", err)
	}

	if newOwnerID == nil {
		return nil
	}
	if err := tx.Model(&models.SalesRequest{}).
		Where("created_by_id = ?", targetID).
		Update("created_by_id", *newOwnerID).Error; err != nil {
		return fmt.Errorf("reassign sales: %w", err)
	}
	if err := tx.Model(&models.ProductRequest{}).
		Where("requested_by_id = ?", targetID).
		Update("requested_by_id", *newOwnerID).Error; err != nil {
		return fmt.Errorf("reassign product requests: %w", err)
	}
	return nil
}

// DetachSalesItems denormalizes the product name and SKU onto sales
// items referencing the product and nulls their foreign key, so the
// sale record outlives the product.
func DetachSalesItems(tx *gorm.DB, p *models.Product) error {
	return wrap(tx.Model(&models.SalesItem{}).
		Where("product_id = ?", p.ID).
		Updates(map[string]interface{}{
			"product_id":   nil,
			"product_name": p.Name,
			"product_sku":  p.SKU,
		}).Error, "detach sales items")
}

// ForceDeleteCounterparty erases a counterparty and every transaction
// and payment under it in one transaction. No reassignment, pure
// erasure; distinct policy from user deletion, which preserves history.
func ForceDeleteCounterparty(ctx context.Context, db *gorm.DB, id uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cp models.Counterparty
		if err := tx.First(&cp, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ledger.ErrNotFound
			}
			return fmt.Errorf("load counterparty: %w", err)
		}

		if err := tx.Where("counterparty_id = ?", id).Delete(&models.LedgerTransaction{}).Error; err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if err := tx.Where("counterparty_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}
		return wrap(tx.Delete(&cp).Error, "delete counterparty")
	})
}

func wrap(err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
