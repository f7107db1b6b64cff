package models

import "time"

// Backup is one encrypted snapshot file of the business data.
type Backup struct {
	ID          uint   `gorm:"primaryKey"`
	FileName    string `gorm:"size:128;not null"`
	FilePath    string `gorm:"size:512;not null"`
	Size        int64  `gorm:"not null"`
	CreatedByID uint   `gorm:"index;not null"`
	CreatedAt   time.Time
}
