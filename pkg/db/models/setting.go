package models

import "time"

// Setting is a single key/value configuration row.
type Setting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Setting) TableName() string { return "settings" }

const SettingPaymentQRCodeURL = "payment.qr_code_url"
