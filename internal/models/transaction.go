package models

import "time"

// LedgerTransaction is one khata entry against a counterparty.
// Amounts are stored in paise to avoid float error (₹12.34 = 1234).
// A positive amount means "we owe the counterparty".
type LedgerTransaction struct {
	ID             uint   `gorm:"primaryKey"`
	TransactionID  string `gorm:"size:32;uniqueIndex;not null"` // VT-2026-0001 / KT-2026-0001
	CounterpartyID uint   `gorm:"index;not null"`
	Amount         int64  `gorm:"not null"` // paise, signed
	Description    string `gorm:"size:255"`
	Items          string `gorm:"type:text"` // optional item breakdown, JSON

	IsApproved   bool  `gorm:"index;not null"`
	CreatedByID  uint  `gorm:"index;not null"`
	ApprovedByID *uint `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Counterparty Counterparty `gorm:"constraint:OnDelete:CASCADE"`
}

// Payment settles part of a counterparty balance.
// Amount is always positive; the kind of the counterparty decides the
// sign it contributes to the balance.
type Payment struct {
	ID              uint   `gorm:"primaryKey"`
	PaymentID       string `gorm:"size:32;uniqueIndex;not null"` // VP-2026-0001 / KP-2026-0001
	CounterpartyID  uint   `gorm:"index;not null"`
	Amount          int64  `gorm:"not null"` // paise, > 0
	PaymentMode     string `gorm:"size:32;not null"`
	ReferenceNumber string `gorm:"size:64"`
	Notes           string `gorm:"size:255"`

	IsApproved   bool  `gorm:"index;not null"`
	CreatedByID  uint  `gorm:"index;not null"`
	ApprovedByID *uint `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Counterparty Counterparty `gorm:"constraint:OnDelete:CASCADE"`
}

// DocumentSequence is a per-prefix atomic counter used to number
// transactions and payments (e.g. prefix "KT-2026"). Incremented with
// an upsert inside the same transaction that inserts the document, so
// two concurrent creations can never draw the same number.
type DocumentSequence struct {
	Prefix string `gorm:"primaryKey;size:16"`
	Next   int64  `gorm:"not null;default:1"`
}
