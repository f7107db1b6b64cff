package models

import "time"

// NotificationRetention is the per-user cap; older rows are dropped
// whenever the list is read.
const NotificationRetention = 10

// Notification is an in-app message for one user.
type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Title     string `gorm:"size:128;not null"`
	Body      string `gorm:"size:512"`
	Read      bool   `gorm:"index;not null"`
	CreatedAt time.Time
}

// Todo is a personal task note; deleted with its owner.
type Todo struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Text      string `gorm:"size:255;not null"`
	Done      bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
