package billing

import (
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"gorm.io/gorm"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	GetUserByID(id uint) (*models.User, error)
	GetTransactionByID(id uint) (*models.PaymentTransaction, error)
	GetInvoiceByOrder(userID uint, gatewayOrderID string) (*models.Invoice, error)
	FindUnpaidInvoice(userID uint, gatewayOrderID string) (*models.Invoice, error)
	ListInvoicesByUser(userID uint) ([]models.Invoice, error)
	CreateUpgrade(order *models.Order, tx *models.PaymentTransaction, invoice *models.Invoice) error
	ApplyPaymentSuccess(p PaymentSuccess) (bool, error)
}

// PaymentSuccess carries the state transition applied when a payment
// verifies: transaction to SUCCESS, invoice to PAID, user onto the plan.
type PaymentSuccess struct {
	TransactionID    uint
	InvoiceID        uint
	UserID           uint
	Plan             string
	GatewayPaymentID string
	PaymentMethod    string
	PaidAt           time.Time
	NextBillingDate  time.Time
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) GetTransactionByID(id uint) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := r.db.First(&tx, id).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *gormRepository) GetInvoiceByOrder(userID uint, gatewayOrderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.
		Where("user_id = ? AND gateway_order_id = ?", userID, gatewayOrderID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormRepository) FindUnpaidInvoice(userID uint, gatewayOrderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.
		Where("user_id = ? AND gateway_order_id = ? AND invoice_status = ?",
			userID, gatewayOrderID, models.InvoiceStatusUnpaid).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *gormRepository) ListInvoicesByUser(userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

// CreateUpgrade persists the order, its pending transaction and the unpaid
// invoice as one unit.
func (r *gormRepository) CreateUpgrade(order *models.Order, tx *models.PaymentTransaction, invoice *models.Invoice) error {
	return r.db.Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(order).Error; err != nil {
			return err
		}
		tx.OrderID = order.ID
		if err := dbtx.Create(tx).Error; err != nil {
			return err
		}
		invoice.OrderID = order.ID
		return dbtx.Create(invoice).Error
	})
}

// ApplyPaymentSuccess performs the reconciliation writes in one DB
// transaction. The first update is conditional on the transaction still
// being PENDING; when a concurrent verification already claimed it, no rows
// match, nothing else is written and applied=false is returned. This is what
// keeps duplicate webhook deliveries from double-processing a payment.
func (r *gormRepository) ApplyPaymentSuccess(p PaymentSuccess) (bool, error) {
	applied := false
	err := r.db.Transaction(func(dbtx *gorm.DB) error {
		res := dbtx.Model(&models.PaymentTransaction{}).
			Where("id = ? AND status = ?", p.TransactionID, models.TransactionStatusPending).
			Updates(map[string]interface{}{
				"status":             models.TransactionStatusSuccess,
				"gateway_payment_id": p.GatewayPaymentID,
				"verified_at":        p.PaidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := dbtx.Model(&models.Invoice{}).
			Where("id = ? AND invoice_status = ?", p.InvoiceID, models.InvoiceStatusUnpaid).
			Updates(map[string]interface{}{
				"invoice_status":     models.InvoiceStatusPaid,
				"payment_status":     models.TransactionStatusSuccess,
				"gateway_payment_id": p.GatewayPaymentID,
				"payment_method":     p.PaymentMethod,
				"paid_at":            p.PaidAt,
			}).Error; err != nil {
			return err
		}

		if err := dbtx.Model(&models.User{}).
			Where("id = ?", p.UserID).
			Updates(map[string]interface{}{
				"subscription_plan": p.Plan,
				"next_billing_date": p.NextBillingDate,
			}).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})
	return applied, err
}
