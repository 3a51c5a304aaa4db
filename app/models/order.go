package models

import "time"

// Order is created when a user initiates a plan upgrade. It carries the
// target plan and the gateway order id the payment callback will reference.
type Order struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Plan           string    `gorm:"type:varchar(20);not null" json:"plan"`
	AmountMinor    int       `gorm:"not null" json:"amount_minor"`
	GatewayOrderID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"gateway_order_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
