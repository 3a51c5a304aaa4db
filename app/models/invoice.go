package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invoice ledger states. InvoiceStatus tracks whether the billing cycle is
// settled; PaymentStatus mirrors the linked transaction.
const (
	InvoiceStatusUnpaid = "UNPAID"
	InvoiceStatusPaid   = "PAID"
)

// Invoice is the billing-cycle record an incoming payment settles. It is
// marked PAID only by the reconciliation step that also flips the linked
// transaction to SUCCESS.
type Invoice struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index:idx_invoices_user_order,priority:1" json:"user_id"`
	OrderID          uint       `gorm:"not null;index" json:"order_id"`
	InvoiceNumber    string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	GatewayOrderID   string     `gorm:"type:varchar(191);not null;index:idx_invoices_user_order,priority:2" json:"gateway_order_id"`
	GatewayPaymentID string     `gorm:"type:varchar(191);default:''" json:"gateway_payment_id"`
	Plan             string     `gorm:"type:varchar(20);not null" json:"plan"`
	SubtotalMinor    int        `gorm:"not null" json:"subtotal_minor"`
	TaxMinor         int        `gorm:"not null" json:"tax_minor"`
	TotalMinor       int        `gorm:"not null" json:"total_minor"`
	InvoiceStatus    string     `gorm:"type:varchar(16);not null;default:'UNPAID';index" json:"invoice_status"`
	PaymentStatus    string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"payment_status"`
	PaymentMethod    string     `gorm:"type:varchar(32);default:''" json:"payment_method"`
	PaidAt           *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewInvoiceNumber generates a unique human-readable invoice number.
func NewInvoiceNumber(now time.Time) string {
	fragment := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ZYV-%s-%s", now.Format("200601"), fragment)
}

// IsPaid reports whether this invoice has been settled.
func (i *Invoice) IsPaid() bool {
	return i.InvoiceStatus == InvoiceStatusPaid
}
