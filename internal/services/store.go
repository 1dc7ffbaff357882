package services

import (
	"context"

	"github.com/shade-pay/backend/internal/models"
)

// Store is the persistence boundary of the engine. Atomic runs fn inside
// a transaction: every write made through the store fn receives either
// commits as a whole or is rolled back. A nested Atomic joins the ambient
// transaction, so a service calling another service inside Atomic still
// forms one all-or-nothing unit.
type Store interface {
	Merchants() MerchantStore
	Invoices() InvoiceStore
	Roles() RoleStore
	Settings() SettingsStore
	Accounts() AccountStore
	Ledger() TokenLedger
	Audit() AuditStore

	Atomic(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

type MerchantStore interface {
	// Create assigns the next sequential merchant id.
	Create(ctx context.Context, m *models.Merchant) error
	GetByID(ctx context.Context, id uint64) (*models.Merchant, error)
	GetByAddress(ctx context.Context, address string) (*models.Merchant, error)
	SetVerified(ctx context.Context, id uint64, verified bool) error
	List(ctx context.Context, f models.MerchantFilter) ([]models.Merchant, error)
	// SetAccount links the merchant's escrow account address.
	SetAccount(ctx context.Context, merchantID uint64, account string) error
	// GetAccount returns "" when no account has been linked.
	GetAccount(ctx context.Context, merchantID uint64) (string, error)
}

// InvoiceQuery is the storage-level form of models.InvoiceFilter with the
// merchant address already resolved to an id.
type InvoiceQuery struct {
	Status     *string
	MerchantID *uint64
	MinAmount  *int64
	MaxAmount  *int64
}

type InvoiceStore interface {
	// Create assigns the next sequential invoice id (global across merchants).
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id uint64) (*models.Invoice, error)
	Update(ctx context.Context, inv *models.Invoice) error
	List(ctx context.Context, q InvoiceQuery) ([]models.Invoice, error)
}

type RoleStore interface {
	Grant(ctx context.Context, user, role string) error // idempotent
	Revoke(ctx context.Context, user, role string) error
	Has(ctx context.Context, user, role string) (bool, error)
}

type SettingsStore interface {
	// GetContractInfo returns nil when the engine is not initialized.
	GetContractInfo(ctx context.Context) (*models.ContractInfo, error)
	SetContractInfo(ctx context.Context, info models.ContractInfo) error
	IsPaused(ctx context.Context) (bool, error)
	SetPaused(ctx context.Context, paused bool) error
	AddAcceptedToken(ctx context.Context, token string) error
	RemoveAcceptedToken(ctx context.Context, token string) error
	IsAcceptedToken(ctx context.Context, token string) (bool, error)
	SetFee(ctx context.Context, token string, feeBPS int) error
	// GetFee returns 0 for tokens without a configured rate.
	GetFee(ctx context.Context, token string) (int, error)
}

type AccountStore interface {
	Create(ctx context.Context, a *models.EscrowAccount) error
	GetByAddress(ctx context.Context, address string) (*models.EscrowAccount, error)
	GetByMerchantID(ctx context.Context, merchantID uint64) (*models.EscrowAccount, error)
	SetRestricted(ctx context.Context, address string, restricted bool) error
	// AddToken reports whether the token was newly tracked.
	AddToken(ctx context.Context, address, token string) (bool, error)
	HasToken(ctx context.Context, address, token string) (bool, error)
	ListTokens(ctx context.Context, address string) ([]string, error)
}

// TokenLedger is the fungible-token ledger collaborator. Transfers run
// inside the ambient transaction; a failed transfer aborts the whole
// operation.
type TokenLedger interface {
	Transfer(ctx context.Context, token, from, to string, amount int64) error
	Balance(ctx context.Context, token, holder string) (int64, error)
	Mint(ctx context.Context, token, to string, amount int64) error
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error)
}
