package models

import "time"

// SalesRequest statuses.
const (
	SaleStatusPending   = "Pending"
	SaleStatusCompleted = "Completed"
)

// SalesRequest is a customer sale. Pending requests created by a user
// are removed when that user is deleted; completed ones are reassigned
// so the sale history survives.
type SalesRequest struct {
	ID           uint   `gorm:"primaryKey"`
	CustomerName string `gorm:"size:128"`
	Status       string `gorm:"size:16;index;not null;default:Pending"`
	TotalAmount  int64  `gorm:"not null"` // paise
	CreatedByID  uint   `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []SalesItem `gorm:"constraint:OnDelete:CASCADE"`
}

// SalesItem is one line of a sale. ProductName and ProductSKU are
// denormalized copies; when the product row is later deleted the
// ProductID is nulled and the copies keep the history readable.
type SalesItem struct {
	ID             uint   `gorm:"primaryKey"`
	SalesRequestID uint   `gorm:"index;not null"`
	ProductID      *uint  `gorm:"index"`
	ProductName    string `gorm:"size:128;not null"`
	ProductSKU     string `gorm:"size:64;not null"`
	Quantity       int    `gorm:"not null"`
	UnitPrice      int64  `gorm:"not null"` // paise
	CreatedAt      time.Time
}
