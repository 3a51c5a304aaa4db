package models

import "time"

// Payment transaction states. A transaction leaves PENDING exactly once.
const (
	TransactionStatusPending = "PENDING"
	TransactionStatusSuccess = "SUCCESS"
	TransactionStatusFailed  = "FAILED"
)

// PaymentTransaction is one payment-gateway attempt against an order.
type PaymentTransaction struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	OrderID          uint       `gorm:"not null;index" json:"order_id"`
	GatewayOrderID   string     `gorm:"type:varchar(191);not null;index" json:"gateway_order_id"`
	GatewayPaymentID string     `gorm:"type:varchar(191);default:''" json:"gateway_payment_id"`
	Status           string     `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"status"`
	VerifiedAt       *time.Time `gorm:"type:timestamp;default:null" json:"verified_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSettled reports whether the transaction already left PENDING.
func (t *PaymentTransaction) IsSettled() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}
