package model

import "time"

// AppLicense is a persisted activation. At most one row is active.
type AppLicense struct {
	ID          string    `gorm:"primaryKey;size:36"`
	LicenseKey  string    `gorm:"size:64;not null"`
	HWID        string    `gorm:"column:hwid;size:32;not null"`
	IsActive    bool      `gorm:"index;not null;default:true"`
	LicenseType string    `gorm:"size:16;not null"`
	ExpireDate  string    `gorm:"size:10"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName keeps the singular table name used by existing installations.
func (AppLicense) TableName() string {
	return "app_license"
}
