package controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/zyvarin/zyvarin-social/app/models"
	"github.com/zyvarin/zyvarin-social/internal/pkg/billing"
	"github.com/zyvarin/zyvarin-social/internal/pkg/database"
	"github.com/zyvarin/zyvarin-social/internal/pkg/env"
	"github.com/zyvarin/zyvarin-social/internal/pkg/mail"
	"github.com/zyvarin/zyvarin-social/internal/pkg/session"
	"github.com/zyvarin/zyvarin-social/internal/pkg/usercontext"
)

type createUpgradeOrderRequest struct {
	PlanID string `json:"plan_id"`
}

type verifyPaymentRequest struct {
	OrderID       string `json:"order_id"`
	PaymentID     string `json:"payment_id"`
	Signature     string `json:"signature"`
	TransactionID uint   `json:"transaction_id"`
	PlanID        string `json:"plan_id"`
}

func billingService() *billing.Service {
	return billing.NewServiceFromDB(database.GetDB(), env.GetEnv("PAYMENT_GATEWAY_SECRET", ""))
}

// HandleCreateUpgradeOrder opens an upgrade order for a paid plan and returns
// the pending transaction the gateway callback will later reference.
func HandleCreateUpgradeOrder(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req createUpgradeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "malformed request body"})
	}

	upgrade, err := billingService().CreateUpgradeOrder(c.Context(), userCtx.UserID, req.PlanID)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"gateway_order_id": upgrade.Order.GatewayOrderID,
		"transaction_id":   upgrade.Transaction.ID,
		"plan":             upgrade.Order.Plan,
		"subtotal_minor":   upgrade.Invoice.SubtotalMinor,
		"tax_minor":        upgrade.Invoice.TaxMinor,
		"total_minor":      upgrade.Invoice.TotalMinor,
		"invoice_number":   upgrade.Invoice.InvoiceNumber,
	})
}

// HandleVerifyPayment reconciles a payment-gateway success callback. The
// subscription flips exactly once; replays get the same receipt back.
func HandleVerifyPayment(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	var req verifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "malformed request body"})
	}

	receipt, err := billingService().VerifyPayment(c.Context(), billing.VerifyPaymentInput{
		CallerEmail:   userCtx.Email,
		OrderID:       req.OrderID,
		PaymentID:     req.PaymentID,
		Signature:     req.Signature,
		TransactionID: req.TransactionID,
		PlanID:        req.PlanID,
	})
	if err != nil {
		return billingErrorResponse(c, err)
	}

	if !receipt.AlreadyVerified {
		notifyPaymentSuccess(userCtx.UserID, userCtx.Email, receipt)
		refreshSessionPlan(c, session.GetSessionStore(), receipt.Plan)
	}

	return c.JSON(receipt)
}

// HandleListInvoices returns the caller's invoices, newest first.
func HandleListInvoices(c *fiber.Ctx) error {
	userCtx, ok := requireUser(c)
	if !ok {
		return nil
	}

	invoices, err := billingService().ListInvoices(c.Context(), userCtx.UserID)
	if err != nil {
		return billingErrorResponse(c, err)
	}

	items := make([]fiber.Map, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		items = append(items, fiber.Map{
			"invoice_number": inv.InvoiceNumber,
			"plan":           inv.Plan,
			"subtotal_minor": inv.SubtotalMinor,
			"tax_minor":      inv.TaxMinor,
			"total_minor":    inv.TotalMinor,
			"status":         inv.InvoiceStatus,
			"paid":           inv.IsPaid(),
			"paid_at":        formatTimePtr(inv.PaidAt),
			"created_at":     inv.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{"invoices": items})
}

// billingErrorResponse maps billing service errors onto HTTP responses.
// Unexpected errors get a generic message so internals never leak to callers.
func billingErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
	case errors.Is(err, billing.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "you cannot verify this payment"})
	case errors.Is(err, billing.ErrSignature):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature", "message": "payment signature verification failed"})
	case errors.Is(err, billing.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "no matching billing record"})
	default:
		log.Printf("billing error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "internal_server_error",
			"message": "payment verification failed, please contact support",
		})
	}
}

// refreshSessionPlan rewrites the plan cached in the caller's session after
// an upgrade, so session-authenticated requests see the new entitlements
// immediately instead of after the next login. API-key callers carry no
// session and are skipped; failures are logged, never surfaced.
func refreshSessionPlan(c *fiber.Ctx, store *fibersession.Store, plan string) {
	if store == nil {
		return
	}
	sess, err := store.Get(c)
	if err != nil {
		return
	}
	uid, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || uid == 0 {
		return
	}
	sess.Set(usercontext.KeyUserPlan, plan)
	if err := sess.Save(); err != nil {
		log.Printf("failed to refresh session plan for user %d: %v", uid, err)
	}
}

// notifyPaymentSuccess fires the in-app notification and receipt email for a
// freshly verified payment. Both are best effort and never fail the request.
func notifyPaymentSuccess(userID uint, email string, receipt *billing.Receipt) {
	title := "Welcome to " + receipt.PlanName
	message := fmt.Sprintf("Your payment of %d.%02d was received. Invoice %s. Next billing date: %s.",
		receipt.TotalMinor/100, receipt.TotalMinor%100,
		receipt.InvoiceNumber,
		receipt.NextBillingDate.Format("2006-01-02"))

	if err := models.CreateNotification(database.GetDB(), userID, "billing", title, message); err != nil {
		log.Printf("failed to create billing notification for user %d: %v", userID, err)
	}

	go func() {
		body := fmt.Sprintf("<h2>%s</h2><p>%s</p>", title, message)
		if err := mail.SendMail(email, "Your Zyvarin Social receipt", body); err != nil {
			log.Printf("failed to send receipt email to user %d: %v", userID, err)
		}
	}()
}
