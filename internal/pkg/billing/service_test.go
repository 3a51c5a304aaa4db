package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zyvarin/zyvarin-social/app/models"
	"gorm.io/gorm"
)

const testSecret = "unit-test-secret"

type fakeRepo struct {
	mu           sync.Mutex
	users        map[uint]*models.User
	transactions map[uint]*models.PaymentTransaction
	invoices     map[uint]*models.Invoice
	orders       map[uint]*models.Order

	nextID        uint
	upgradeWrites int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        make(map[uint]*models.User),
		transactions: make(map[uint]*models.PaymentTransaction),
		invoices:     make(map[uint]*models.Invoice),
		orders:       make(map[uint]*models.Order),
		nextID:       1,
	}
}

func (f *fakeRepo) id() uint {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetTransactionByID(id uint) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeRepo) GetInvoiceByOrder(userID uint, gatewayOrderID string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.UserID == userID && inv.GatewayOrderID == gatewayOrderID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindUnpaidInvoice(userID uint, gatewayOrderID string) (*models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invoices {
		if inv.UserID == userID && inv.GatewayOrderID == gatewayOrderID && inv.InvoiceStatus == models.InvoiceStatusUnpaid {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListInvoicesByUser(userID uint) ([]models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Invoice
	for _, inv := range f.invoices {
		if inv.UserID == userID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateUpgrade(order *models.Order, tx *models.PaymentTransaction, invoice *models.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = f.id()
	tx.ID = f.id()
	tx.OrderID = order.ID
	invoice.ID = f.id()
	invoice.OrderID = order.ID
	f.orders[order.ID] = order
	cpTx := *tx
	cpInv := *invoice
	f.transactions[tx.ID] = &cpTx
	f.invoices[invoice.ID] = &cpInv
	return nil
}

// ApplyPaymentSuccess mirrors the conditional-update semantics of the real
// repository: only a still-PENDING transaction is claimed, atomically.
func (f *fakeRepo) ApplyPaymentSuccess(p PaymentSuccess) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.transactions[p.TransactionID]
	if !ok || tx.Status != models.TransactionStatusPending {
		return false, nil
	}
	tx.Status = models.TransactionStatusSuccess
	tx.GatewayPaymentID = p.GatewayPaymentID
	paidAt := p.PaidAt
	tx.VerifiedAt = &paidAt

	if inv, ok := f.invoices[p.InvoiceID]; ok && inv.InvoiceStatus == models.InvoiceStatusUnpaid {
		inv.InvoiceStatus = models.InvoiceStatusPaid
		inv.PaymentStatus = models.TransactionStatusSuccess
		inv.GatewayPaymentID = p.GatewayPaymentID
		inv.PaymentMethod = p.PaymentMethod
		inv.PaidAt = &paidAt
	}

	if u, ok := f.users[p.UserID]; ok {
		u.SubscriptionPlan = p.Plan
		next := p.NextBillingDate
		u.NextBillingDate = &next
	}

	f.upgradeWrites++
	return true, nil
}

func newTestService(repo *fakeRepo, now time.Time) *Service {
	svc := NewService(repo, testSecret)
	svc.now = func() time.Time { return now }
	return svc
}

// seedUpgrade creates a user on FREE plus a pending CREATOR order set and
// returns a valid verification input for it.
func seedUpgrade(t *testing.T, repo *fakeRepo, svc *Service) VerifyPaymentInput {
	t.Helper()
	repo.users[1] = &models.User{ID: 1, Email: "maya@example.com", SubscriptionPlan: "FREE"}

	up, err := svc.CreateUpgradeOrder(context.Background(), 1, "CREATOR")
	if err != nil {
		t.Fatalf("unexpected CreateUpgradeOrder error: %v", err)
	}

	paymentID := "pay_001"
	return VerifyPaymentInput{
		CallerEmail:   "maya@example.com",
		OrderID:       up.Order.GatewayOrderID,
		PaymentID:     paymentID,
		Signature:     ComputePaymentSignature(up.Order.GatewayOrderID, paymentID, testSecret),
		TransactionID: up.Transaction.ID,
		PlanID:        "CREATOR",
	}
}

func TestCreateUpgradeOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	repo.users[1] = &models.User{ID: 1, Email: "maya@example.com", SubscriptionPlan: "FREE"}

	up, err := svc.CreateUpgradeOrder(context.Background(), 1, "CREATOR")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.Order.AmountMinor != 499 {
		t.Fatalf("order amount = %d, want 499", up.Order.AmountMinor)
	}
	if up.Invoice.SubtotalMinor != 499 || up.Invoice.TaxMinor != 90 || up.Invoice.TotalMinor != 589 {
		t.Fatalf("invoice amounts = %d/%d/%d, want 499/90/589",
			up.Invoice.SubtotalMinor, up.Invoice.TaxMinor, up.Invoice.TotalMinor)
	}
	if up.Invoice.InvoiceStatus != models.InvoiceStatusUnpaid {
		t.Fatalf("new invoice status = %q, want UNPAID", up.Invoice.InvoiceStatus)
	}
	if up.Transaction.Status != models.TransactionStatusPending {
		t.Fatalf("new transaction status = %q, want PENDING", up.Transaction.Status)
	}
	if up.Order.GatewayOrderID == "" || up.Invoice.InvoiceNumber == "" {
		t.Fatalf("expected gateway order id and invoice number to be set")
	}

	if _, err := svc.CreateUpgradeOrder(context.Background(), 1, "FREE"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for FREE upgrade, got %v", err)
	}
	if _, err := svc.CreateUpgradeOrder(context.Background(), 42, "PREMIUM"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestCreateUpgradeOrderRejectsNonUpgrade(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	repo.users[1] = &models.User{ID: 1, Email: "maya@example.com", SubscriptionPlan: "PREMIUM"}

	if _, err := svc.CreateUpgradeOrder(context.Background(), 1, "CREATOR"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for downgrade order, got %v", err)
	}
	if _, err := svc.CreateUpgradeOrder(context.Background(), 1, "PREMIUM"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for same-plan order, got %v", err)
	}
}

func TestVerifyPaymentHappyPath(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	in := seedUpgrade(t, repo, svc)

	receipt, err := svc.VerifyPayment(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.AlreadyVerified {
		t.Fatalf("first verification must not report already verified")
	}
	if receipt.AmountMinor != 499 || receipt.TaxMinor != 90 || receipt.TotalMinor != 589 {
		t.Fatalf("receipt amounts = %d/%d/%d, want 499/90/589",
			receipt.AmountMinor, receipt.TaxMinor, receipt.TotalMinor)
	}
	if receipt.PlanName != "Creator" {
		t.Fatalf("receipt plan name = %q, want Creator", receipt.PlanName)
	}

	// Next billing is one calendar month from verification time, not from
	// when the invoice was issued.
	wantNext := now.AddDate(0, 1, 0)
	if !receipt.NextBillingDate.Equal(wantNext) {
		t.Fatalf("next billing = %v, want %v", receipt.NextBillingDate, wantNext)
	}

	user := repo.users[1]
	if user.SubscriptionPlan != "CREATOR" {
		t.Fatalf("user plan = %q, want CREATOR", user.SubscriptionPlan)
	}
	if user.NextBillingDate == nil || !user.NextBillingDate.Equal(wantNext) {
		t.Fatalf("user next billing = %v, want %v", user.NextBillingDate, wantNext)
	}

	tx := repo.transactions[in.TransactionID]
	if tx.Status != models.TransactionStatusSuccess || tx.GatewayPaymentID != "pay_001" {
		t.Fatalf("transaction not settled: %+v", tx)
	}
	inv, err := repo.GetInvoiceByOrder(1, in.OrderID)
	if err != nil {
		t.Fatalf("invoice lookup failed: %v", err)
	}
	if inv.InvoiceStatus != models.InvoiceStatusPaid || inv.TotalMinor != 589 {
		t.Fatalf("invoice not settled correctly: %+v", inv)
	}
}

func TestVerifyPaymentIdempotentReplay(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	in := seedUpgrade(t, repo, svc)

	if _, err := svc.VerifyPayment(context.Background(), in); err != nil {
		t.Fatalf("unexpected first-call error: %v", err)
	}
	writesAfterFirst := repo.upgradeWrites

	receipt, err := svc.VerifyPayment(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected replay error: %v", err)
	}
	if !receipt.AlreadyVerified {
		t.Fatalf("expected replay to report already verified")
	}
	if receipt.TotalMinor != 589 || receipt.PlanName != "Creator" {
		t.Fatalf("replay receipt lost derived values: %+v", receipt)
	}
	if repo.upgradeWrites != writesAfterFirst {
		t.Fatalf("replay performed %d additional writes", repo.upgradeWrites-writesAfterFirst)
	}
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	in := seedUpgrade(t, repo, svc)

	in.Signature = ComputePaymentSignature(in.OrderID, "pay_other", testSecret)
	if _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrSignature) {
		t.Fatalf("expected ErrSignature, got %v", err)
	}

	tx := repo.transactions[in.TransactionID]
	if tx.Status != models.TransactionStatusPending {
		t.Fatalf("rejected verification mutated transaction: %+v", tx)
	}
	if repo.users[1].SubscriptionPlan != "FREE" {
		t.Fatalf("rejected verification mutated user plan")
	}
}

func TestVerifyPaymentWrongCaller(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	in := seedUpgrade(t, repo, svc)

	in.CallerEmail = "mallory@example.com"
	if _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if repo.users[1].SubscriptionPlan != "FREE" {
		t.Fatalf("unauthorized verification mutated user plan")
	}
}

func TestVerifyPaymentUnknownTransaction(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	in := seedUpgrade(t, repo, svc)

	in.TransactionID = 999
	if _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestVerifyPaymentFailedTransaction(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	in := seedUpgrade(t, repo, svc)

	repo.transactions[in.TransactionID].Status = models.TransactionStatusFailed

	if _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for failed transaction, got %v", err)
	}
	if repo.users[1].SubscriptionPlan != "FREE" {
		t.Fatalf("failed-transaction verification mutated user plan")
	}
}

func TestVerifyPaymentInvoiceAlreadyPaid(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	in := seedUpgrade(t, repo, svc)

	// Invoice consumed out of band; transaction still PENDING.
	for _, inv := range repo.invoices {
		inv.InvoiceStatus = models.InvoiceStatusPaid
	}

	if _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for consumed invoice, got %v", err)
	}
	if repo.users[1].SubscriptionPlan != "FREE" {
		t.Fatalf("consumed-invoice verification mutated user plan")
	}
}

func TestVerifyPaymentValidation(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	valid := seedUpgrade(t, repo, svc)

	tests := []struct {
		name   string
		mutate func(in *VerifyPaymentInput)
	}{
		{name: "missing order id", mutate: func(in *VerifyPaymentInput) { in.OrderID = "" }},
		{name: "missing payment id", mutate: func(in *VerifyPaymentInput) { in.PaymentID = "" }},
		{name: "missing signature", mutate: func(in *VerifyPaymentInput) { in.Signature = "  " }},
		{name: "missing transaction id", mutate: func(in *VerifyPaymentInput) { in.TransactionID = 0 }},
		{name: "free plan", mutate: func(in *VerifyPaymentInput) { in.PlanID = "FREE" }},
		{name: "unknown plan", mutate: func(in *VerifyPaymentInput) { in.PlanID = "GOLD" }},
		{name: "plan not on order", mutate: func(in *VerifyPaymentInput) { in.PlanID = "PREMIUM" }},
		{name: "order id not on transaction", mutate: func(in *VerifyPaymentInput) { in.OrderID = "order_spoofed" }},
	}

	for _, tt := range tests {
		in := valid
		tt.mutate(&in)
		if _, err := svc.VerifyPayment(context.Background(), in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tt.name, err)
		}
	}
}

func TestVerifyPaymentPlanMustMatchOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	in := seedUpgrade(t, repo, svc)

	// The signature covers only orderId|paymentId, so it stays valid when the
	// claimed plan is swapped. The order was created for CREATOR (499); a
	// PREMIUM claim must not buy the bigger tier.
	spoofed := in
	spoofed.PlanID = "PREMIUM"
	if _, err := svc.VerifyPayment(context.Background(), spoofed); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for plan swap, got %v", err)
	}
	if repo.users[1].SubscriptionPlan != "FREE" {
		t.Fatalf("plan swap mutated user plan to %q", repo.users[1].SubscriptionPlan)
	}
	if tx := repo.transactions[in.TransactionID]; tx.Status != models.TransactionStatusPending {
		t.Fatalf("plan swap settled the transaction: %+v", tx)
	}

	// The legitimate claim still verifies, and a later replay with a swapped
	// plan is rejected instead of echoing PREMIUM amounts.
	if _, err := svc.VerifyPayment(context.Background(), in); err != nil {
		t.Fatalf("unexpected error for matching plan: %v", err)
	}
	if _, err := svc.VerifyPayment(context.Background(), spoofed); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for plan swap on replay, got %v", err)
	}
	if repo.users[1].SubscriptionPlan != "CREATOR" {
		t.Fatalf("user plan = %q, want CREATOR", repo.users[1].SubscriptionPlan)
	}
}

func TestVerifyPaymentOrderMustMatchTransaction(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, time.Now())
	first := seedUpgrade(t, repo, svc)

	// A second pending order for the same user, paid with its own valid
	// signature, must not settle against the first transaction.
	up, err := svc.CreateUpgradeOrder(context.Background(), 1, "PREMIUM")
	if err != nil {
		t.Fatalf("unexpected CreateUpgradeOrder error: %v", err)
	}
	cross := VerifyPaymentInput{
		CallerEmail:   first.CallerEmail,
		OrderID:       up.Order.GatewayOrderID,
		PaymentID:     "pay_002",
		Signature:     ComputePaymentSignature(up.Order.GatewayOrderID, "pay_002", testSecret),
		TransactionID: first.TransactionID,
		PlanID:        "PREMIUM",
	}
	if _, err := svc.VerifyPayment(context.Background(), cross); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for cross-order verification, got %v", err)
	}
	if repo.users[1].SubscriptionPlan != "FREE" {
		t.Fatalf("cross-order verification mutated user plan")
	}
}

func TestVerifyPaymentConcurrentCalls(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc := newTestService(repo, now)
	in := seedUpgrade(t, repo, svc)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	receipts := make([]*Receipt, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], errs[i] = svc.VerifyPayment(context.Background(), in)
		}(i)
	}
	wg.Wait()

	// Every caller gets a success-shaped response, but only one performs the
	// plan-upgrade write.
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d got error: %v", i, errs[i])
		}
		if receipts[i] == nil || receipts[i].TotalMinor != 589 {
			t.Fatalf("caller %d got malformed receipt: %+v", i, receipts[i])
		}
	}
	if repo.upgradeWrites != 1 {
		t.Fatalf("upgrade applied %d times, want exactly once", repo.upgradeWrites)
	}
	if repo.users[1].SubscriptionPlan != "CREATOR" {
		t.Fatalf("user plan = %q, want CREATOR", repo.users[1].SubscriptionPlan)
	}
}
