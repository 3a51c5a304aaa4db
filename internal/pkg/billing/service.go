package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/internal/pkg/entitlements"
	"gorm.io/gorm"
)

// Service reconciles payment-gateway callbacks against stored orders,
// transactions and invoices, and activates subscriptions exactly once per
// payment.
type Service struct {
	repo   Repository
	secret string
	now    func() time.Time
}

// NewService creates a billing service from an injected repository and the
// gateway signing secret.
func NewService(repo Repository, secret string) *Service {
	return &Service{repo: repo, secret: secret, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, secret string) *Service {
	return NewService(NewRepository(db), secret)
}

// CreateUpgradeOrder creates the order, pending transaction and unpaid
// invoice a later VerifyPayment call will reconcile.
func (s *Service) CreateUpgradeOrder(ctx context.Context, userID uint, planID string) (*UpgradeOrder, error) {
	_ = ctx
	plan, ok := entitlements.ParsePlan(planID)
	if !ok || !entitlements.IsPaid(plan) {
		return nil, fmt.Errorf("%w: plan %q is not purchasable", ErrValidation, planID)
	}
	if userID == 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if entitlements.Rank(string(plan)) <= entitlements.Rank(user.SubscriptionPlan) {
		return nil, fmt.Errorf("%w: plan %q is not an upgrade from %q", ErrValidation, planID, user.SubscriptionPlan)
	}

	now := s.now()
	limits := entitlements.GetPlanLimits(string(plan))
	amount := limits.MonthlyPriceMinor
	tax := taxFor(amount)

	order := models.Order{
		UserID:         userID,
		Plan:           string(plan),
		AmountMinor:    amount,
		GatewayOrderID: "order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	tx := models.PaymentTransaction{
		UserID:         userID,
		GatewayOrderID: order.GatewayOrderID,
		Status:         models.TransactionStatusPending,
	}
	invoice := models.Invoice{
		UserID:         userID,
		InvoiceNumber:  models.NewInvoiceNumber(now),
		GatewayOrderID: order.GatewayOrderID,
		Plan:           string(plan),
		SubtotalMinor:  amount,
		TaxMinor:       tax,
		TotalMinor:     amount + tax,
		InvoiceStatus:  models.InvoiceStatusUnpaid,
		PaymentStatus:  models.TransactionStatusPending,
	}

	if err := s.repo.CreateUpgrade(&order, &tx, &invoice); err != nil {
		return nil, err
	}
	return &UpgradeOrder{Order: order, Transaction: tx, Invoice: invoice}, nil
}

// VerifyPayment converts a "payment succeeded" callback into the durable
// state transition: transaction SUCCESS, invoice PAID, user plan upgraded
// with next_billing_date one calendar month from now. Replays of an already
// verified payment return an AlreadyVerified receipt without new writes.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (*Receipt, error) {
	_ = ctx
	orderID := strings.TrimSpace(in.OrderID)
	paymentID := strings.TrimSpace(in.PaymentID)
	if orderID == "" || paymentID == "" || strings.TrimSpace(in.Signature) == "" || in.TransactionID == 0 {
		return nil, fmt.Errorf("%w: order_id, payment_id, signature and transaction_id are required", ErrValidation)
	}
	plan, ok := entitlements.ParsePlan(in.PlanID)
	if !ok || !entitlements.IsPaid(plan) {
		return nil, fmt.Errorf("%w: plan %q is not purchasable", ErrValidation, in.PlanID)
	}

	tx, err := s.repo.GetTransactionByID(in.TransactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up transaction: %w", err)
	}
	// The order id must be the one recorded on the transaction. Blocks
	// settling transaction B with a signature minted for order A.
	if orderID != tx.GatewayOrderID {
		return nil, fmt.Errorf("%w: order_id does not match transaction", ErrValidation)
	}

	// Ownership: the authenticated caller must be the user the transaction
	// belongs to. Blocks confirming someone else's payment by id guessing.
	owner, err := s.repo.GetUserByID(tx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up transaction owner: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(in.CallerEmail), owner.Email) {
		return nil, ErrUnauthorized
	}

	if !VerifyPaymentSignature(orderID, paymentID, in.Signature, s.secret) {
		log.Printf("billing: signature mismatch for order %s (user %d)", orderID, tx.UserID)
		return nil, ErrSignature
	}

	// Idempotent replay: webhook retries and double-clicks land here. A
	// transaction that already failed cannot be revived by a later callback.
	if tx.IsSettled() {
		if tx.Status != models.TransactionStatusSuccess {
			return nil, fmt.Errorf("%w: transaction already failed", ErrValidation)
		}
		invoice, err := s.repo.GetInvoiceByOrder(tx.UserID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("looking up invoice: %w", err)
		}
		if string(plan) != invoice.Plan {
			return nil, fmt.Errorf("%w: plan %q does not match order", ErrValidation, in.PlanID)
		}
		return s.replayReceipt(tx, owner, invoice, plan), nil
	}

	invoice, err := s.repo.FindUnpaidInvoice(tx.UserID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up invoice: %w", err)
	}
	// The claimed plan must be the plan the order was created for. The
	// signature covers only orderId|paymentId, so without this check a valid
	// CREATOR signature could be replayed with a PREMIUM plan id.
	if string(plan) != invoice.Plan {
		return nil, fmt.Errorf("%w: plan %q does not match order", ErrValidation, in.PlanID)
	}

	now := s.now()
	// One calendar month from verification time, not from invoice issue, so a
	// late payment does not shorten the next cycle.
	nextBilling := now.AddDate(0, 1, 0)

	applied, err := s.repo.ApplyPaymentSuccess(PaymentSuccess{
		TransactionID:    tx.ID,
		InvoiceID:        invoice.ID,
		UserID:           tx.UserID,
		Plan:             string(plan),
		GatewayPaymentID: paymentID,
		PaymentMethod:    "gateway",
		PaidAt:           now,
		NextBillingDate:  nextBilling,
	})
	if err != nil {
		return nil, fmt.Errorf("applying payment: %w", err)
	}

	limits := entitlements.GetPlanLimits(string(plan))
	receipt := &Receipt{
		TransactionID:   tx.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		Plan:            string(plan),
		PlanName:        entitlements.DisplayName(plan),
		AmountMinor:     limits.MonthlyPriceMinor,
		TaxMinor:        taxFor(limits.MonthlyPriceMinor),
		TotalMinor:      limits.MonthlyPriceMinor + taxFor(limits.MonthlyPriceMinor),
		NextBillingDate: nextBilling,
		AlreadyVerified: !applied,
	}
	return receipt, nil
}

// ListInvoices returns a user's invoices, newest first.
func (s *Service) ListInvoices(ctx context.Context, userID uint) ([]models.Invoice, error) {
	_ = ctx
	if userID == 0 {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return s.repo.ListInvoicesByUser(userID)
}

// replayReceipt rebuilds the confirmation for an already verified payment.
// Amounts come from the plan catalog like the first-time path.
func (s *Service) replayReceipt(tx *models.PaymentTransaction, owner *models.User, invoice *models.Invoice, plan entitlements.Plan) *Receipt {
	nextBilling := s.now().AddDate(0, 1, 0)
	if owner.NextBillingDate != nil {
		nextBilling = *owner.NextBillingDate
	}

	limits := entitlements.GetPlanLimits(string(plan))
	return &Receipt{
		TransactionID:   tx.ID,
		InvoiceNumber:   invoice.InvoiceNumber,
		Plan:            string(plan),
		PlanName:        entitlements.DisplayName(plan),
		AmountMinor:     limits.MonthlyPriceMinor,
		TaxMinor:        taxFor(limits.MonthlyPriceMinor),
		TotalMinor:      limits.MonthlyPriceMinor + taxFor(limits.MonthlyPriceMinor),
		NextBillingDate: nextBilling,
		AlreadyVerified: true,
	}
}
