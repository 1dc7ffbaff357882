package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/models"
	"github.com/shade-pay/backend/internal/services"
)

func (e *env) createInvoice(t *testing.T, amount int64) *models.Invoice {
	t.Helper()
	inv, err := e.invoices.Create(e.ctx, merchantAddr, "test invoice", amount, tokenUSD)
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}

// backdatePayment rewrites date_paid so refund-window cases can be
// exercised without a controllable clock.
func (e *env) backdatePayment(t *testing.T, invoiceID uint64, paidAt time.Time) {
	t.Helper()
	inv, err := e.store.Invoices().GetByID(e.ctx, invoiceID)
	if err != nil || inv == nil {
		t.Fatalf("load invoice %d: %v", invoiceID, err)
	}
	inv.DatePaid = &paidAt
	if err := e.store.Invoices().Update(e.ctx, inv); err != nil {
		t.Fatalf("update invoice: %v", err)
	}
}

func TestCreateInvoice(t *testing.T) {
	e := newEnv(t)
	e.setupSettlement(t, 500, 0)

	if _, err := e.invoices.Create(e.ctx, "addr-unregistered", "x", 100, tokenUSD); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("create by non-merchant: got %v, want ErrNotAuthorized", err)
	}
	if _, err := e.invoices.Create(e.ctx, merchantAddr, "x", 0, tokenUSD); !errors.Is(err, services.ErrInvalidAmount) {
		t.Fatalf("create with zero amount: got %v, want ErrInvalidAmount", err)
	}
	if _, err := e.invoices.Create(e.ctx, merchantAddr, "x", -5, tokenUSD); !errors.Is(err, services.ErrInvalidAmount) {
		t.Fatalf("create with negative amount: got %v, want ErrInvalidAmount", err)
	}

	inv := e.createInvoice(t, 1000)
	if inv.ID != 1 {
		t.Errorf("invoice id = %d, want 1", inv.ID)
	}
	if inv.Status != models.InvoiceStatusPending {
		t.Errorf("status = %q, want pending", inv.Status)
	}
	if inv.AmountRefunded != 0 || inv.Payer != nil || inv.DatePaid != nil {
		t.Errorf("new invoice carries payment state: %+v", inv)
	}
	if n := e.rec.CountTopic(events.TopicInvoiceCreated); n != 1 {
		t.Errorf("invoice_created events = %d, want 1", n)
	}
}

func TestPaySplitsFeeAndSettles(t *testing.T) {
	e := newEnv(t)
	account := e.setupSettlement(t, 500, 1000)
	inv := e.createInvoice(t, 1000)

	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if b := e.balance(t, tokenUSD, payerAddr); b != 0 {
		t.Errorf("payer balance = %d, want 0", b)
	}
	if b := e.balance(t, tokenUSD, account); b != 950 {
		t.Errorf("escrow balance = %d, want 950", b)
	}
	if b := e.balance(t, tokenUSD, engineAddr); b != 50 {
		t.Errorf("engine fee balance = %d, want 50", b)
	}

	paid, err := e.invoices.Get(e.ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %q, want paid", paid.Status)
	}
	if paid.Payer == nil || *paid.Payer != payerAddr {
		t.Errorf("payer = %v, want %q", paid.Payer, payerAddr)
	}
	if paid.DatePaid == nil {
		t.Error("date_paid not set")
	}

	evt, ok := e.rec.LastTopic(events.TopicInvoicePaid).(events.InvoicePaid)
	if !ok {
		t.Fatal("invoice_paid event missing or wrong type")
	}
	if evt.Fee != 50 || evt.MerchantAmount != 950 || evt.Amount != 1000 {
		t.Errorf("invoice_paid event = %+v", evt)
	}
	if evt.Fee+evt.MerchantAmount != evt.Amount {
		t.Errorf("fee split does not conserve the amount: %d + %d != %d", evt.Fee, evt.MerchantAmount, evt.Amount)
	}

	// Paying a paid invoice is rejected.
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); !errors.Is(err, services.ErrInvalidInvoiceStatus) {
		t.Fatalf("double pay: got %v, want ErrInvalidInvoiceStatus", err)
	}
}

func TestPayPreconditions(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)
	e.registerMerchant(t, merchantAddr)
	e.mint(t, tokenUSD, payerAddr, 1000)

	if err := e.invoices.Pay(e.ctx, payerAddr, 42); !errors.Is(err, services.ErrInvoiceNotFound) {
		t.Fatalf("pay unknown invoice: got %v, want ErrInvoiceNotFound", err)
	}

	inv := e.createInvoice(t, 1000)

	// Token not on the allowlist.
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); !errors.Is(err, services.ErrTokenNotAccepted) {
		t.Fatalf("pay with unaccepted token: got %v, want ErrTokenNotAccepted", err)
	}
	if err := e.admins.AddAcceptedToken(e.ctx, adminAddr, tokenUSD); err != nil {
		t.Fatalf("add accepted token: %v", err)
	}

	// Merchant has no escrow account linked yet.
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); !errors.Is(err, services.ErrAccountNotSet) {
		t.Fatalf("pay without linked account: got %v, want ErrAccountNotSet", err)
	}

	account := e.openAccount(t, merchantAddr)
	if err := e.merchants.SetAccount(e.ctx, merchantAddr, account.Address); err != nil {
		t.Fatalf("set account: %v", err)
	}

	// Underfunded payer: nothing moves, invoice stays pending.
	if err := e.invoices.Pay(e.ctx, "addr-broke", inv.ID); !errors.Is(err, services.ErrInsufficientBalance) {
		t.Fatalf("pay while broke: got %v, want ErrInsufficientBalance", err)
	}
	pending, _ := e.invoices.Get(e.ctx, inv.ID)
	if pending.Status != models.InvoiceStatusPending {
		t.Errorf("status after failed pay = %q, want pending", pending.Status)
	}
	if b := e.balance(t, tokenUSD, account.Address); b != 0 {
		t.Errorf("escrow balance after failed pay = %d, want 0", b)
	}

	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
}

func TestVoidPendingInvoice(t *testing.T) {
	e := newEnv(t)
	e.setupSettlement(t, 500, 1000)
	e.registerMerchant(t, "addr-merchant-2")
	inv := e.createInvoice(t, 1000)

	if err := e.invoices.Void(e.ctx, "addr-merchant-2", inv.ID); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("void by another merchant: got %v, want ErrNotAuthorized", err)
	}

	if err := e.invoices.Void(e.ctx, merchantAddr, inv.ID); err != nil {
		t.Fatalf("void: %v", err)
	}
	got, _ := e.invoices.Get(e.ctx, inv.ID)
	if got.Status != models.InvoiceStatusCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}

	// Cancelled is terminal: no second void, no payment.
	if err := e.invoices.Void(e.ctx, merchantAddr, inv.ID); !errors.Is(err, services.ErrInvalidInvoiceStatus) {
		t.Fatalf("double void: got %v, want ErrInvalidInvoiceStatus", err)
	}
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); !errors.Is(err, services.ErrInvalidInvoiceStatus) {
		t.Fatalf("pay cancelled invoice: got %v, want ErrInvalidInvoiceStatus", err)
	}
	if b := e.balance(t, tokenUSD, payerAddr); b != 1000 {
		t.Errorf("payer balance = %d, want untouched 1000", b)
	}
}

func TestPartialRefund(t *testing.T) {
	e := newEnv(t)
	account := e.setupSettlement(t, 500, 1000)
	inv := e.createInvoice(t, 1000)
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 275); err != nil {
		t.Fatalf("partial refund: %v", err)
	}

	got, _ := e.invoices.Get(e.ctx, inv.ID)
	if got.Status != models.InvoiceStatusPartiallyRefunded {
		t.Errorf("status = %q, want partially_refunded", got.Status)
	}
	if got.AmountRefunded != 275 {
		t.Errorf("amount_refunded = %d, want 275", got.AmountRefunded)
	}
	if b := e.balance(t, tokenUSD, payerAddr); b != 275 {
		t.Errorf("payer balance = %d, want 275", b)
	}
	if b := e.balance(t, tokenUSD, account); b != 675 {
		t.Errorf("escrow balance = %d, want 675", b)
	}

	evt, ok := e.rec.LastTopic(events.TopicInvoicePartiallyRefunded).(events.InvoicePartiallyRefunded)
	if !ok {
		t.Fatal("invoice_partially_refunded event missing or wrong type")
	}
	if evt.Amount != 275 || evt.AmountRefunded != 275 {
		t.Errorf("partial refund event = %+v", evt)
	}

	// A second slice accumulates.
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 100); err != nil {
		t.Fatalf("second partial refund: %v", err)
	}
	got, _ = e.invoices.Get(e.ctx, inv.ID)
	if got.AmountRefunded != 375 || got.Status != models.InvoiceStatusPartiallyRefunded {
		t.Errorf("after second refund: refunded=%d status=%q", got.AmountRefunded, got.Status)
	}

	// Refunding past the invoice amount is rejected.
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 626); !errors.Is(err, services.ErrInvalidAmount) {
		t.Fatalf("over-refund: got %v, want ErrInvalidAmount", err)
	}
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 0); !errors.Is(err, services.ErrInvalidAmount) {
		t.Fatalf("zero refund: got %v, want ErrInvalidAmount", err)
	}
}

func TestFullRefundTransitionsToRefunded(t *testing.T) {
	e := newEnv(t)
	account := e.setupSettlement(t, 0, 1000)
	inv := e.createInvoice(t, 1000)
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if b := e.balance(t, tokenUSD, account); b != 1000 {
		t.Fatalf("escrow balance = %d, want full 1000 at zero fee", b)
	}

	if err := e.invoices.Refund(e.ctx, merchantAddr, inv.ID); err != nil {
		t.Fatalf("full refund: %v", err)
	}
	got, _ := e.invoices.Get(e.ctx, inv.ID)
	if got.Status != models.InvoiceStatusRefunded {
		t.Errorf("status = %q, want refunded", got.Status)
	}
	if got.AmountRefunded != 1000 {
		t.Errorf("amount_refunded = %d, want 1000", got.AmountRefunded)
	}
	if b := e.balance(t, tokenUSD, payerAddr); b != 1000 {
		t.Errorf("payer balance = %d, want 1000 restored", b)
	}
	if n := e.rec.CountTopic(events.TopicInvoiceRefunded); n != 1 {
		t.Errorf("invoice_refunded events = %d, want 1", n)
	}

	// Nothing left to refund.
	if err := e.invoices.Refund(e.ctx, merchantAddr, inv.ID); !errors.Is(err, services.ErrInvalidAmount) {
		t.Fatalf("refund of exhausted invoice: got %v, want ErrInvalidAmount", err)
	}
}

func TestRefundWindow(t *testing.T) {
	e := newEnv(t)
	e.setupSettlement(t, 0, 1000)
	inv := e.createInvoice(t, 1000)
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	// Just inside the window: refunds still go through.
	e.backdatePayment(t, inv.ID, time.Now().Add(-models.RefundWindow+time.Minute))
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 100); err != nil {
		t.Fatalf("refund inside window: %v", err)
	}

	// Past the window: expired.
	e.backdatePayment(t, inv.ID, time.Now().Add(-models.RefundWindow-time.Minute))
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 100); !errors.Is(err, services.ErrRefundPeriodExpired) {
		t.Fatalf("refund past window: got %v, want ErrRefundPeriodExpired", err)
	}
	got, _ := e.invoices.Get(e.ctx, inv.ID)
	if got.AmountRefunded != 100 {
		t.Errorf("amount_refunded = %d, want 100 after expired attempt", got.AmountRefunded)
	}
}

func TestRefundFailureRollsBackInvoice(t *testing.T) {
	e := newEnv(t)
	account := e.setupSettlement(t, 500, 1000)
	inv := e.createInvoice(t, 1000)
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	// The escrow account holds 950; refunding the full 1000 overdraws it.
	if err := e.invoices.Refund(e.ctx, merchantAddr, inv.ID); !errors.Is(err, services.ErrInsufficientBalance) {
		t.Fatalf("overdraw refund: got %v, want ErrInsufficientBalance", err)
	}

	got, _ := e.invoices.Get(e.ctx, inv.ID)
	if got.Status != models.InvoiceStatusPaid || got.AmountRefunded != 0 {
		t.Errorf("invoice mutated by failed refund: status=%q refunded=%d", got.Status, got.AmountRefunded)
	}
	if b := e.balance(t, tokenUSD, account); b != 950 {
		t.Errorf("escrow balance = %d, want 950 unchanged", b)
	}
	if b := e.balance(t, tokenUSD, payerAddr); b != 0 {
		t.Errorf("payer balance = %d, want 0 unchanged", b)
	}
}

func TestRefundRequiresOwnerAndPaidStatus(t *testing.T) {
	e := newEnv(t)
	e.setupSettlement(t, 500, 1000)
	e.registerMerchant(t, "addr-merchant-2")
	inv := e.createInvoice(t, 1000)

	// Pending invoices cannot be refunded.
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 100); !errors.Is(err, services.ErrInvalidInvoiceStatus) {
		t.Fatalf("refund pending invoice: got %v, want ErrInvalidInvoiceStatus", err)
	}

	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := e.invoices.RefundPartial(e.ctx, "addr-merchant-2", inv.ID, 100); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("refund by another merchant: got %v, want ErrNotAuthorized", err)
	}
}

func TestTotalSupplyIsConserved(t *testing.T) {
	e := newEnv(t)
	account := e.setupSettlement(t, 725, 5000)
	inv := e.createInvoice(t, 3333)

	total := func() int64 {
		return e.balance(t, tokenUSD, payerAddr) +
			e.balance(t, tokenUSD, account) +
			e.balance(t, tokenUSD, engineAddr)
	}

	before := total()
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if got := total(); got != before {
		t.Errorf("total supply after pay = %d, want %d", got, before)
	}
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 1200); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if got := total(); got != before {
		t.Errorf("total supply after refund = %d, want %d", got, before)
	}
}

func TestListInvoices(t *testing.T) {
	e := newEnv(t)
	e.setupSettlement(t, 0, 10000)
	e.registerMerchant(t, "addr-merchant-2")

	small := e.createInvoice(t, 100)
	e.createInvoice(t, 2500)
	if _, err := e.invoices.Create(e.ctx, "addr-merchant-2", "other", 900, tokenUSD); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.invoices.Pay(e.ctx, payerAddr, small.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}

	all, err := e.invoices.List(e.ctx, models.InvoiceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("unfiltered list = %d invoices, want 3", len(all))
	}

	paid := models.InvoiceStatusPaid
	byStatus, _ := e.invoices.List(e.ctx, models.InvoiceFilter{Status: &paid})
	if len(byStatus) != 1 || byStatus[0].ID != small.ID {
		t.Errorf("status filter = %v, want only invoice %d", byStatus, small.ID)
	}

	merchant := merchantAddr
	byMerchant, _ := e.invoices.List(e.ctx, models.InvoiceFilter{Merchant: &merchant})
	if len(byMerchant) != 2 {
		t.Errorf("merchant filter = %d invoices, want 2", len(byMerchant))
	}

	min, max := int64(500), int64(1000)
	byAmount, _ := e.invoices.List(e.ctx, models.InvoiceFilter{MinAmount: &min, MaxAmount: &max})
	if len(byAmount) != 1 || byAmount[0].Amount != 900 {
		t.Errorf("amount filter = %v, want only the 900 invoice", byAmount)
	}

	unknown := "addr-nobody"
	none, err := e.invoices.List(e.ctx, models.InvoiceFilter{Merchant: &unknown})
	if err != nil {
		t.Fatalf("list unknown merchant: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown merchant filter = %d invoices, want 0", len(none))
	}
}

func TestInvoiceAuditTrail(t *testing.T) {
	e := newEnv(t)
	e.setupSettlement(t, 500, 1000)
	inv := e.createInvoice(t, 1000)
	if err := e.invoices.Pay(e.ctx, payerAddr, inv.ID); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := e.invoices.RefundPartial(e.ctx, merchantAddr, inv.ID, 50); err != nil {
		t.Fatalf("refund: %v", err)
	}

	logs, err := e.invoices.GetEvents(e.ctx, inv.ID)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("audit entries = %d, want 3", len(logs))
	}
	// Most recent first.
	if logs[0].Action != "invoice_refund" || logs[2].Action != "invoice_created" {
		t.Errorf("audit order wrong: first=%q last=%q", logs[0].Action, logs[2].Action)
	}
}
