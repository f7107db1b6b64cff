package models

import "time"

// Counterparty kinds of the khata ledger.
const (
	KindVyapari = "vyapari" // trader
	KindKarigar = "karigar" // artisan
)

// Counterparty statuses.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Counterparty 表示 khata 账本的交易对手（Vyapari 商人 / Karigar 工匠）。
// Non-admin creations start unapproved and are hidden from other users
// until an admin approves them.
type Counterparty struct {
	ID        uint   `gorm:"primaryKey"`
	Kind      string `gorm:"size:16;index;not null"` // vyapari / karigar
	Name      string `gorm:"size:128;not null"`
	Phone     string `gorm:"size:32"`
	Address   string `gorm:"size:255"`
	GSTNumber string `gorm:"size:32"`
	Status    string `gorm:"size:16;not null;default:Active"`

	IsApproved   bool  `gorm:"index;not null"`
	CreatedByID  uint  `gorm:"index;not null"`
	ApprovedByID *uint `gorm:"index"` // set exactly once, at approval time

	CreatedAt time.Time
	UpdatedAt time.Time
}
