package model

import "time"

// PushSubscription holds the information for a browser push subscription
// receiving low-stock alerts.
type PushSubscription struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Endpoint  string    `gorm:"uniqueIndex;not null" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	UserID    string    `gorm:"index;size:36" json:"user_id"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}
