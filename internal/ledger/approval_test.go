package ledger

import (
	"errors"
	"testing"

	"github.com/dipandhali2021/jims-sub002/internal/models"

	"gorm.io/gorm"
)

func TestApproveTransaction_SetsApproverOnce(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	cp := seedCounterparty(t, db, models.KindKarigar, true, admin.ID)
	seedTransaction(t, db, cp.ID, 5000, false, "KT-2026-0001")

	txn, err := ApproveTransaction(db, 1, admin.ID)
	if err != nil {
		t.Fatalf("ApproveTransaction() error = %v", err)
	}

	var got models.LedgerTransaction
	if err := db.First(&got, txn.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !got.IsApproved {
		t.Error("IsApproved = false, want true")
	}
	if got.ApprovedByID == nil || *got.ApprovedByID != admin.ID {
		t.Errorf("ApprovedByID = %v, want %d", got.ApprovedByID, admin.ID)
	}
}

func TestApproveTransaction_TwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	other := seedUser(t, db, "admin2", models.RoleAdmin)
	cp := seedCounterparty(t, db, models.KindKarigar, true, admin.ID)
	seedTransaction(t, db, cp.ID, 5000, false, "KT-2026-0001")

	if _, err := ApproveTransaction(db, 1, admin.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := ApproveTransaction(db, 1, other.ID)
	if !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("second approve error = %v, want ErrAlreadyApproved", err)
	}

	// the original approver must not be overwritten
	var got models.LedgerTransaction
	if err := db.First(&got, 1).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.ApprovedByID == nil || *got.ApprovedByID != admin.ID {
		t.Errorf("ApprovedByID = %v, want %d (first approver)", got.ApprovedByID, admin.ID)
	}
}

func TestApproveTransaction_NotFound(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)

	_, err := ApproveTransaction(db, 77, admin.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ApproveTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestRejectTransaction_DeletesRow(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	cp := seedCounterparty(t, db, models.KindKarigar, true, admin.ID)
	seedTransaction(t, db, cp.ID, 5000, false, "KT-2026-0001")

	if err := RejectTransaction(db, 1); err != nil {
		t.Fatalf("RejectTransaction() error = %v", err)
	}

	var got models.LedgerTransaction
	err := db.First(&got, 1).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("fetch after reject error = %v, want record not found", err)
	}
}

func TestRejectTransaction_ApprovedIsProtected(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	cp := seedCounterparty(t, db, models.KindKarigar, true, admin.ID)
	seedTransaction(t, db, cp.ID, 5000, true, "KT-2026-0001")

	err := RejectTransaction(db, 1)
	if !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("RejectTransaction() error = %v, want ErrAlreadyApproved", err)
	}
}

func TestApprovePayment_TwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	cp := seedCounterparty(t, db, models.KindVyapari, true, admin.ID)
	seedPayment(t, db, cp.ID, 2000, false, "VP-2026-0001")

	if _, err := ApprovePayment(db, 1, admin.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	_, err := ApprovePayment(db, 1, admin.ID)
	if !errors.Is(err, ErrAlreadyApproved) {
		t.Errorf("second approve error = %v, want ErrAlreadyApproved", err)
	}
}

func TestRejectPayment_DeletesRow(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	cp := seedCounterparty(t, db, models.KindVyapari, true, admin.ID)
	seedPayment(t, db, cp.ID, 2000, false, "VP-2026-0001")

	if err := RejectPayment(db, 1); err != nil {
		t.Fatalf("RejectPayment() error = %v", err)
	}
	var got models.Payment
	err := db.First(&got, 1).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("fetch after reject error = %v, want record not found", err)
	}
}

func TestApproveCounterparty_DefaultsStatusActive(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	user := seedUser(t, db, "user1", models.RoleUser)

	cp := models.Counterparty{
		Kind:        models.KindVyapari,
		Name:        "Mehta Traders",
		CreatedByID: user.ID,
	}
	if err := db.Create(&cp).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := ApproveCounterparty(db, cp.ID, admin.ID)
	if err != nil {
		t.Fatalf("ApproveCounterparty() error = %v", err)
	}

	var reloaded models.Counterparty
	if err := db.First(&reloaded, got.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsApproved {
		t.Error("IsApproved = false, want true")
	}
	if reloaded.Status != models.StatusActive {
		t.Errorf("Status = %q, want Active", reloaded.Status)
	}
	if reloaded.ApprovedByID == nil || *reloaded.ApprovedByID != admin.ID {
		t.Errorf("ApprovedByID = %v, want %d", reloaded.ApprovedByID, admin.ID)
	}
}

func TestApproveCounterparty_KeepsExistingStatus(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	user := seedUser(t, db, "user1", models.RoleUser)

	cp := models.Counterparty{
		Kind:        models.KindKarigar,
		Name:        "Ramesh Karigar",
		Status:      models.StatusInactive,
		CreatedByID: user.ID,
	}
	if err := db.Create(&cp).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := ApproveCounterparty(db, cp.ID, admin.ID); err != nil {
		t.Fatalf("ApproveCounterparty() error = %v", err)
	}

	var reloaded models.Counterparty
	if err := db.First(&reloaded, cp.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != models.StatusInactive {
		t.Errorf("Status = %q, want Inactive preserved", reloaded.Status)
	}
}

func TestRejectCounterparty_DeletesPending(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "user1", models.RoleUser)
	cp := seedCounterparty(t, db, models.KindVyapari, false, user.ID)

	if err := RejectCounterparty(db, cp.ID); err != nil {
		t.Fatalf("RejectCounterparty() error = %v", err)
	}
	var got models.Counterparty
	err := db.First(&got, cp.ID).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("fetch after reject error = %v, want record not found", err)
	}
}
