package services_test

import (
	"context"
	"testing"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/models"
	"github.com/shade-pay/backend/internal/repositories"
	"github.com/shade-pay/backend/internal/services"
	"go.uber.org/zap"
)

const (
	adminAddr    = "addr-admin"
	engineAddr   = "addr-engine"
	merchantAddr = "addr-merchant-1"
	payerAddr    = "addr-payer-1"
	tokenUSD     = "token:usdc"
)

// env wires every service against one in-memory store and one event
// recorder, the way main wires them against postgres and redis.
type env struct {
	ctx       context.Context
	store     *repositories.MemStore
	rec       *events.Recorder
	admins    *services.AdminService
	access    *services.AccessService
	merchants *services.MerchantService
	accounts  *services.AccountService
	invoices  *services.InvoiceService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()
	store := repositories.NewMemStore()
	rec := events.NewRecorder()

	accounts := services.NewAccountService(store, rec, engineAddr, log)
	gateway := services.NewEngineGateway(accounts, engineAddr)

	return &env{
		ctx:       context.Background(),
		store:     store,
		rec:       rec,
		admins:    services.NewAdminService(store, rec, log),
		access:    services.NewAccessService(store, rec, log),
		merchants: services.NewMerchantService(store, rec, log),
		accounts:  accounts,
		invoices:  services.NewInvoiceService(store, gateway, rec, engineAddr, log),
	}
}

func (e *env) initialize(t *testing.T) {
	t.Helper()
	if err := e.admins.Initialize(e.ctx, adminAddr); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func (e *env) registerMerchant(t *testing.T, addr string) *models.Merchant {
	t.Helper()
	m, err := e.merchants.Register(e.ctx, addr)
	if err != nil {
		t.Fatalf("register merchant %s: %v", addr, err)
	}
	return m
}

func (e *env) openAccount(t *testing.T, addr string) *models.EscrowAccount {
	t.Helper()
	a, err := e.accounts.Open(e.ctx, addr)
	if err != nil {
		t.Fatalf("open account for %s: %v", addr, err)
	}
	return a
}

func (e *env) mint(t *testing.T, token, to string, amount int64) {
	t.Helper()
	if err := e.admins.Mint(e.ctx, adminAddr, token, to, amount); err != nil {
		t.Fatalf("mint %d %s to %s: %v", amount, token, to, err)
	}
}

func (e *env) balance(t *testing.T, token, holder string) int64 {
	t.Helper()
	b, err := e.store.Ledger().Balance(e.ctx, token, holder)
	if err != nil {
		t.Fatalf("balance %s/%s: %v", token, holder, err)
	}
	return b
}

// setupSettlement builds the standard fixture: initialized engine, one
// accepted token at the given fee, one merchant with a linked escrow
// account, and a funded payer. Returns the escrow account address.
func (e *env) setupSettlement(t *testing.T, feeBPS int, payerFunds int64) string {
	t.Helper()
	e.initialize(t)
	if err := e.admins.AddAcceptedToken(e.ctx, adminAddr, tokenUSD); err != nil {
		t.Fatalf("add accepted token: %v", err)
	}
	if err := e.admins.SetFee(e.ctx, adminAddr, tokenUSD, feeBPS); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	e.registerMerchant(t, merchantAddr)
	account := e.openAccount(t, merchantAddr)
	if err := e.merchants.SetAccount(e.ctx, merchantAddr, account.Address); err != nil {
		t.Fatalf("set account: %v", err)
	}
	if payerFunds > 0 {
		e.mint(t, tokenUSD, payerAddr, payerFunds)
	}
	return account.Address
}
