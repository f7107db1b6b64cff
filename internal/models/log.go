package models

import "time"

// AdminAction records a write performed directly by an admin. Such
// writes skip the approval workflow, so this table is the trace that
// they happened (pre-approved by definition).
type AdminAction struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    *uint  `gorm:"index"`
	Path      string `gorm:"size:255"`
	Method    string `gorm:"size:16"`
	Summary   string `gorm:"size:2048"` // method + path + trimmed request body
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}
