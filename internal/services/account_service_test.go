package services_test

import (
	"errors"
	"testing"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/services"
)

func TestOpenAccountOncePerMerchant(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)

	if _, err := e.accounts.Open(e.ctx, "addr-unregistered"); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("open by non-merchant: got %v, want ErrNotAuthorized", err)
	}

	m := e.registerMerchant(t, merchantAddr)
	a := e.openAccount(t, merchantAddr)
	if a.Owner != merchantAddr {
		t.Errorf("owner = %q, want %q", a.Owner, merchantAddr)
	}
	if a.Manager != engineAddr {
		t.Errorf("manager = %q, want %q", a.Manager, engineAddr)
	}
	if a.MerchantID != m.ID {
		t.Errorf("merchant id = %d, want %d", a.MerchantID, m.ID)
	}
	if a.Restricted {
		t.Error("new account is restricted")
	}
	if n := e.rec.CountTopic(events.TopicAccountInitialized); n != 1 {
		t.Errorf("account_initialized events = %d, want 1", n)
	}

	if _, err := e.accounts.Open(e.ctx, merchantAddr); !errors.Is(err, services.ErrAlreadyInitialized) {
		t.Fatalf("second open: got %v, want ErrAlreadyInitialized", err)
	}
}

func TestAddTokenIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)
	e.registerMerchant(t, merchantAddr)
	a := e.openAccount(t, merchantAddr)

	// Only the manager may track tokens; the owner cannot.
	if err := e.accounts.AddToken(e.ctx, merchantAddr, a.Address, tokenUSD); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("add token by owner: got %v, want ErrNotAuthorized", err)
	}

	if err := e.accounts.AddToken(e.ctx, engineAddr, a.Address, tokenUSD); err != nil {
		t.Fatalf("add token: %v", err)
	}
	if has, _ := e.accounts.HasToken(e.ctx, a.Address, tokenUSD); !has {
		t.Fatal("HasToken = false after add")
	}

	// Re-adding is a silent no-op.
	if err := e.accounts.AddToken(e.ctx, engineAddr, a.Address, tokenUSD); err != nil {
		t.Fatalf("re-add token: %v", err)
	}
	if n := e.rec.CountTopic(events.TopicAccountTokenAdded); n != 1 {
		t.Errorf("account_token_added events = %d, want 1", n)
	}

	balances, err := e.accounts.GetBalances(e.ctx, a.Address)
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}
	if len(balances) != 1 || balances[0].Token != tokenUSD || balances[0].Balance != 0 {
		t.Errorf("balances = %v, want one zero entry for %s", balances, tokenUSD)
	}
}

func TestWithdrawTo(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)
	e.registerMerchant(t, merchantAddr)
	a := e.openAccount(t, merchantAddr)
	e.mint(t, tokenUSD, a.Address, 500)
	recipient := "addr-cold-wallet"

	// Manager cannot withdraw; that path is owner-only.
	if err := e.accounts.WithdrawTo(e.ctx, engineAddr, a.Address, tokenUSD, 100, recipient); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("withdraw by manager: got %v, want ErrNotAuthorized", err)
	}
	if err := e.accounts.WithdrawTo(e.ctx, merchantAddr, a.Address, tokenUSD, 0, recipient); !errors.Is(err, services.ErrInvalidAmount) {
		t.Fatalf("withdraw zero: got %v, want ErrInvalidAmount", err)
	}
	if err := e.accounts.WithdrawTo(e.ctx, merchantAddr, a.Address, tokenUSD, 501, recipient); !errors.Is(err, services.ErrInsufficientBalance) {
		t.Fatalf("overdraw: got %v, want ErrInsufficientBalance", err)
	}
	if b := e.balance(t, tokenUSD, a.Address); b != 500 {
		t.Fatalf("balance changed by failed withdrawals: %d", b)
	}

	if err := e.accounts.WithdrawTo(e.ctx, merchantAddr, a.Address, tokenUSD, 180, recipient); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if b := e.balance(t, tokenUSD, a.Address); b != 320 {
		t.Errorf("account balance = %d, want 320", b)
	}
	if b := e.balance(t, tokenUSD, recipient); b != 180 {
		t.Errorf("recipient balance = %d, want 180", b)
	}
	if n := e.rec.CountTopic(events.TopicWithdrawalTo); n != 1 {
		t.Errorf("withdrawal_to events = %d, want 1", n)
	}
	evt, ok := e.rec.LastTopic(events.TopicWithdrawalTo).(events.WithdrawalTo)
	if !ok {
		t.Fatal("withdrawal event has wrong type")
	}
	if evt.Amount != 180 || evt.Recipient != recipient {
		t.Errorf("withdrawal event = %+v", evt)
	}
}

func TestRestrictedAccountBlocksOutflows(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)
	e.registerMerchant(t, merchantAddr)
	a := e.openAccount(t, merchantAddr)
	e.mint(t, tokenUSD, a.Address, 500)

	// Only the manager may toggle the restriction.
	if err := e.accounts.Restrict(e.ctx, merchantAddr, a.Address, true); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("restrict by owner: got %v, want ErrNotAuthorized", err)
	}
	if err := e.accounts.Restrict(e.ctx, engineAddr, a.Address, true); err != nil {
		t.Fatalf("restrict: %v", err)
	}
	if restricted, _ := e.accounts.IsRestricted(e.ctx, a.Address); !restricted {
		t.Fatal("IsRestricted = false after restrict")
	}

	if err := e.accounts.WithdrawTo(e.ctx, merchantAddr, a.Address, tokenUSD, 100, "addr-x"); !errors.Is(err, services.ErrAccountRestricted) {
		t.Fatalf("withdraw while restricted: got %v, want ErrAccountRestricted", err)
	}
	if err := e.accounts.Refund(e.ctx, engineAddr, a.Address, tokenUSD, 100, "addr-x"); !errors.Is(err, services.ErrAccountRestricted) {
		t.Fatalf("refund while restricted: got %v, want ErrAccountRestricted", err)
	}
	if b := e.balance(t, tokenUSD, a.Address); b != 500 {
		t.Fatalf("balance changed while restricted: %d", b)
	}

	// Setting the same value again still emits the event.
	if err := e.accounts.Restrict(e.ctx, engineAddr, a.Address, true); err != nil {
		t.Fatalf("repeat restrict: %v", err)
	}
	if n := e.rec.CountTopic(events.TopicAccountRestricted); n != 2 {
		t.Errorf("account_restricted events = %d, want 2", n)
	}

	if err := e.accounts.Restrict(e.ctx, engineAddr, a.Address, false); err != nil {
		t.Fatalf("unrestrict: %v", err)
	}
	if err := e.accounts.WithdrawTo(e.ctx, merchantAddr, a.Address, tokenUSD, 100, "addr-x"); err != nil {
		t.Fatalf("withdraw after unrestrict: %v", err)
	}
}

func TestRefundIsManagerOnly(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)
	e.registerMerchant(t, merchantAddr)
	a := e.openAccount(t, merchantAddr)
	e.mint(t, tokenUSD, a.Address, 500)

	if err := e.accounts.Refund(e.ctx, merchantAddr, a.Address, tokenUSD, 100, payerAddr); !errors.Is(err, services.ErrNotAuthorized) {
		t.Fatalf("refund by owner: got %v, want ErrNotAuthorized", err)
	}
	if err := e.accounts.Refund(e.ctx, engineAddr, a.Address, tokenUSD, 100, payerAddr); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if b := e.balance(t, tokenUSD, payerAddr); b != 100 {
		t.Errorf("payer balance = %d, want 100", b)
	}
	if n := e.rec.CountTopic(events.TopicRefundProcessed); n != 1 {
		t.Errorf("refund_processed events = %d, want 1", n)
	}
}

func TestAccountLookupFailures(t *testing.T) {
	e := newEnv(t)
	e.initialize(t)

	if _, err := e.accounts.Get(e.ctx, "esc:missing"); !errors.Is(err, services.ErrAccountNotFound) {
		t.Fatalf("get missing account: got %v, want ErrAccountNotFound", err)
	}
	if _, err := e.accounts.GetBalance(e.ctx, "esc:missing", tokenUSD); !errors.Is(err, services.ErrAccountNotFound) {
		t.Fatalf("balance of missing account: got %v, want ErrAccountNotFound", err)
	}
	if err := e.accounts.Restrict(e.ctx, engineAddr, "esc:missing", true); !errors.Is(err, services.ErrAccountNotFound) {
		t.Fatalf("restrict missing account: got %v, want ErrAccountNotFound", err)
	}
}
