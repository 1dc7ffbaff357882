package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shade-pay/backend/internal/services"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so every repo can
// run against the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// Store aggregates the pgx repositories behind the services.Store
// interface.
type Store struct {
	pool *pgxpool.Pool

	merchants *MerchantRepo
	invoices  *InvoiceRepo
	roles     *RoleRepo
	settings  *SettingsRepo
	accounts  *AccountRepo
	ledger    *LedgerRepo
	audit     *AuditRepo
}

func NewStore(pool *pgxpool.Pool) *Store {
	return bindStore(pool, pool)
}

func bindStore(pool *pgxpool.Pool, db DBTX) *Store {
	return &Store{
		pool:      pool,
		merchants: &MerchantRepo{db: db},
		invoices:  &InvoiceRepo{db: db},
		roles:     &RoleRepo{db: db},
		settings:  &SettingsRepo{db: db},
		accounts:  &AccountRepo{db: db},
		ledger:    &LedgerRepo{db: db},
		audit:     &AuditRepo{db: db},
	}
}

func (s *Store) Merchants() services.MerchantStore { return s.merchants }
func (s *Store) Invoices() services.InvoiceStore   { return s.invoices }
func (s *Store) Roles() services.RoleStore         { return s.roles }
func (s *Store) Settings() services.SettingsStore  { return s.settings }
func (s *Store) Accounts() services.AccountStore   { return s.accounts }
func (s *Store) Ledger() services.TokenLedger      { return s.ledger }
func (s *Store) Audit() services.AuditStore        { return s.audit }

// Atomic runs fn in a transaction. A nested call joins the transaction
// already carried by ctx, so composed operations commit or revert as one
// unit.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, st services.Store) error) error {
	if bound, ok := ctx.Value(txKey{}).(*Store); ok {
		return fn(ctx, bound)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	bound := bindStore(s.pool, tx)
	ctx = context.WithValue(ctx, txKey{}, bound)

	if err := fn(ctx, bound); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
