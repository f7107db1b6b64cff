package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/dipandhali2021/jims-sub002/internal/database"
	"github.com/dipandhali2021/jims-sub002/internal/ledger"
	"github.com/dipandhali2021/jims-sub002/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	u := models.User{Username: username, PasswordHash: "x", Role: role}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func seedProduct(t *testing.T, db *gorm.DB, sku string, ownerID uint) *models.Product {
	t.Helper()
	p := models.Product{
		Name:        "Gold Ring " + sku,
		SKU:         sku,
		Price:       150000,
		CostPrice:   120000,
		Stock:       3,
		CreatedByID: ownerID,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return &p
}

func seedSale(t *testing.T, db *gorm.DB, ownerID uint, status string, p *models.Product) *models.SalesRequest {
	t.Helper()
	pid := p.ID
	s := models.SalesRequest{
		CustomerName: "Walk-in",
		Status:       status,
		TotalAmount:  p.Price,
		CreatedByID:  ownerID,
		Items: []models.SalesItem{{
			ProductID:   &pid,
			ProductName: p.Name,
			ProductSKU:  p.SKU,
			Quantity:    1,
			UnitPrice:   p.Price,
		}},
	}
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return &s
}

// recordingIDP captures identity-provider deletions.
type recordingIDP struct {
	deleted []uint
	fail    bool
}

func (r *recordingIDP) DeleteAccount(_ context.Context, userID uint) error {
	if r.fail {
		return errors.New("idp unavailable")
	}
	r.deleted = append(r.deleted, userID)
	return nil
}

func TestDeleteUser_SelfDeletionForbidden(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)

	err := DeleteUser(context.Background(), db, nil, admin.ID, admin.ID)
	if !errors.Is(err, ErrSelfDelete) {
		t.Errorf("DeleteUser(self) error = %v, want ErrSelfDelete", err)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)

	err := DeleteUser(context.Background(), db, nil, 999, admin.ID)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("DeleteUser() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser_ReassignsProductsToRemainingAdmin(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)
	p := seedProduct(t, db, "GR-001", target.ID)

	if err := DeleteUser(context.Background(), db, nil, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var got models.Product
	if err := db.First(&got, p.ID).Error; err != nil {
		t.Fatalf("product must survive: %v", err)
	}
	if got.CreatedByID != admin.ID {
		t.Errorf("product owner = %d, want fallback admin %d", got.CreatedByID, admin.ID)
	}

	var gone models.User
	if err := db.First(&gone, target.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("user fetch error = %v, want record not found", err)
	}
}

func TestDeleteUser_NoAdminLeftDeletesProducts(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleAdmin)
	p := seedProduct(t, db, "GR-002", target.ID)
	sale := seedSale(t, db, admin.ID, models.SaleStatusCompleted, p)

	// demote the only other account so no fallback admin exists
	if err := db.Model(admin).Update("role", models.RoleUser).Error; err != nil {
		t.Fatalf("demote: %v", err)
	}

	if err := DeleteUser(context.Background(), db, nil, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var gone models.Product
	if err := db.First(&gone, p.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("product fetch error = %v, want record not found", err)
	}

	// sale history keeps the denormalized snapshot
	var item models.SalesItem
	if err := db.Where("sales_request_id = ?", sale.ID).First(&item).Error; err != nil {
		t.Fatalf("load sales item: %v", err)
	}
	if item.ProductID != nil {
		t.Errorf("ProductID = %v, want nil after detach", item.ProductID)
	}
	if item.ProductName != p.Name || item.ProductSKU != p.SKU {
		t.Errorf("denormalized fields = (%q, %q), want (%q, %q)",
			item.ProductName, item.ProductSKU, p.Name, p.SKU)
	}
}

func TestDeleteUser_SalesItemsDetachedEvenWhenReassigned(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)
	p := seedProduct(t, db, "GR-003", target.ID)
	sale := seedSale(t, db, admin.ID, models.SaleStatusCompleted, p)

	if err := DeleteUser(context.Background(), db, nil, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var item models.SalesItem
	if err := db.Where("sales_request_id = ?", sale.ID).First(&item).Error; err != nil {
		t.Fatalf("load sales item: %v", err)
	}
	if item.ProductID != nil {
		t.Errorf("ProductID = %v, want nil", item.ProductID)
	}
	if item.ProductName != p.Name || item.ProductSKU != p.SKU {
		t.Errorf("denormalized fields lost: (%q, %q)", item.ProductName, item.ProductSKU)
	}
}

func TestDeleteUser_PendingRequestsDropCompletedReassign(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)
	p := seedProduct(t, db, "GR-004", admin.ID)

	pending := seedSale(t, db, target.ID, models.SaleStatusPending, p)
	completed := seedSale(t, db, target.ID, models.SaleStatusCompleted, p)

	pendingReq := models.ProductRequest{Type: models.ProductReqCreate, Payload: "{}", RequestedByID: target.ID}
	if err := db.Create(&pendingReq).Error; err != nil {
		t.Fatalf("seed product request: %v", err)
	}

	if err := DeleteUser(context.Background(), db, nil, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var gone models.SalesRequest
	if err := db.First(&gone, pending.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("pending sale fetch error = %v, want record not found", err)
	}

	var kept models.SalesRequest
	if err := db.First(&kept, completed.ID).Error; err != nil {
		t.Fatalf("completed sale must survive: %v", err)
	}
	if kept.CreatedByID != admin.ID {
		t.Errorf("completed sale owner = %d, want %d", kept.CreatedByID, admin.ID)
	}

	var goneReq models.ProductRequest
	if err := db.First(&goneReq, pendingReq.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("pending product request fetch error = %v, want record not found", err)
	}
}

func TestDeleteUser_RemovesPersonalRecords(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)

	if err := db.Create(&models.Todo{UserID: target.ID, Text: "call karigar"}).Error; err != nil {
		t.Fatalf("seed todo: %v", err)
	}
	if err := db.Create(&models.Notification{UserID: target.ID, Title: "hi"}).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	if err := DeleteUser(context.Background(), db, nil, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	var todos, notifs int64
	db.Model(&models.Todo{}).Where("user_id = ?", target.ID).Count(&todos)
	db.Model(&models.Notification{}).Where("user_id = ?", target.ID).Count(&notifs)
	if todos != 0 || notifs != 0 {
		t.Errorf("personal records left: todos=%d notifications=%d", todos, notifs)
	}
}

func TestDeleteUser_IdentityProviderCalledAfterCommit(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)

	idp := &recordingIDP{}
	if err := DeleteUser(context.Background(), db, idp, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if len(idp.deleted) != 1 || idp.deleted[0] != target.ID {
		t.Errorf("idp deletions = %v, want [%d]", idp.deleted, target.ID)
	}
}

func TestDeleteUser_IdentityProviderFailureIsNotRolledBack(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)
	target := seedUser(t, db, "target", models.RoleUser)

	idp := &recordingIDP{fail: true}
	if err := DeleteUser(context.Background(), db, idp, target.ID, admin.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v (idp failure must not surface)", err)
	}

	var gone models.User
	if err := db.First(&gone, target.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("local deletion must stand; fetch error = %v", err)
	}
}

func TestForceDeleteCounterparty_ErasesEverything(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin1", models.RoleAdmin)

	cp := models.Counterparty{
		Kind: models.KindKarigar, Name: "Ramesh", Status: models.StatusActive,
		IsApproved: true, CreatedByID: admin.ID,
	}
	if err := db.Create(&cp).Error; err != nil {
		t.Fatalf("seed counterparty: %v", err)
	}
	txn := models.LedgerTransaction{
		TransactionID: "KT-2026-0001", CounterpartyID: cp.ID,
		Amount: 5000, IsApproved: true, CreatedByID: admin.ID,
	}
	pay := models.Payment{
		PaymentID: "KP-2026-0001", CounterpartyID: cp.ID,
		Amount: 2000, PaymentMode: "cash", IsApproved: true, CreatedByID: admin.ID,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	if err := db.Create(&pay).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	if err := ForceDeleteCounterparty(context.Background(), db, cp.ID); err != nil {
		t.Fatalf("ForceDeleteCounterparty() error = %v", err)
	}

	var txns, pays int64
	db.Model(&models.LedgerTransaction{}).Where("counterparty_id = ?", cp.ID).Count(&txns)
	db.Model(&models.Payment{}).Where("counterparty_id = ?", cp.ID).Count(&pays)
	if txns != 0 || pays != 0 {
		t.Errorf("ledger rows left: transactions=%d payments=%d", txns, pays)
	}

	if _, err := ledger.ComputeBalance(db, cp.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("balance after force delete error = %v, want ErrNotFound", err)
	}
}

func TestForceDeleteCounterparty_NotFound(t *testing.T) {
	db := newTestDB(t)
	err := ForceDeleteCounterparty(context.Background(), db, 404)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("ForceDeleteCounterparty() error = %v, want ErrNotFound", err)
	}
}
