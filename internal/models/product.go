package models

import "time"

// Product is a jewelry inventory item. Image upload goes to an external
// storage provider; only the resulting URL is kept here.
type Product struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:128;not null"`
	SKU               string `gorm:"size:64;uniqueIndex;not null"`
	Category          string `gorm:"size:64;index"`
	Price             int64  `gorm:"not null"` // paise
	CostPrice         int64  `gorm:"not null"` // paise
	Stock             int    `gorm:"not null"`
	LowStockThreshold int    `gorm:"not null;default:5"`
	ImageURL          string `gorm:"size:512"`
	CreatedByID       uint   `gorm:"index;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProductRequest types.
const (
	ProductReqCreate = "create"
	ProductReqUpdate = "update"
	ProductReqDelete = "delete"
)

// ProductRequest is a pending product change raised by a non-admin
// user. Approval applies the payload to the products table; rejection
// deletes the request outright.
type ProductRequest struct {
	ID            uint   `gorm:"primaryKey"`
	Type          string `gorm:"size:16;not null"` // create / update / delete
	ProductID     *uint  `gorm:"index"`            // nil for create
	Payload       string `gorm:"type:text"`        // JSON snapshot of the requested product fields
	RequestedByID uint   `gorm:"index;not null"`

	IsApproved   bool  `gorm:"index;not null"`
	ApprovedByID *uint `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
