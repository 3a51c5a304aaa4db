package billing

import (
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
)

// VerifyPaymentInput is the normalized payment-gateway callback plus the
// authenticated caller identity.
type VerifyPaymentInput struct {
	CallerEmail   string
	OrderID       string
	PaymentID     string
	Signature     string
	TransactionID uint
	PlanID        string
}

// Receipt is the confirmation returned after a verification. Price, tax and
// total are derived from the static plan catalog, never from the request, so
// a caller cannot claim a higher plan at a spoofed price.
type Receipt struct {
	TransactionID   uint      `json:"transaction_id"`
	InvoiceNumber   string    `json:"invoice_number"`
	Plan            string    `json:"plan"`
	PlanName        string    `json:"plan_name"`
	AmountMinor     int       `json:"amount_minor"`
	TaxMinor        int       `json:"tax_minor"`
	TotalMinor      int       `json:"total_minor"`
	NextBillingDate time.Time `json:"next_billing_date"`
	AlreadyVerified bool      `json:"already_verified"`
}

// UpgradeOrder bundles the records created when a user initiates an upgrade.
type UpgradeOrder struct {
	Order       models.Order              `json:"order"`
	Transaction models.PaymentTransaction `json:"transaction"`
	Invoice     models.Invoice            `json:"invoice"`
}

// taxRatePercent is the fixed tax applied to plan prices.
const taxRatePercent = 18

// taxFor computes the tax on an amount in minor units, rounded to the
// nearest unit.
func taxFor(amountMinor int) int {
	return (amountMinor*taxRatePercent + 50) / 100
}
