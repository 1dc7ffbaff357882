package repositories

import (
	"context"

	"github.com/shade-pay/backend/internal/services"
)

// LedgerRepo is the double-entry token ledger. Debits fail rather than
// drive a balance negative; a failed debit inside a transaction aborts
// the whole operation.
type LedgerRepo struct {
	db DBTX
}

func (r *LedgerRepo) Transfer(ctx context.Context, token, from, to string, amount int64) error {
	if amount <= 0 {
		return services.ErrInvalidAmount
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE ledger_balances SET balance = balance - $1
		WHERE token = $2 AND holder = $3 AND balance >= $1
	`, amount, token, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrInsufficientBalance
	}
	return r.credit(ctx, token, to, amount)
}

func (r *LedgerRepo) Balance(ctx context.Context, token, holder string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE((SELECT balance FROM ledger_balances WHERE token = $1 AND holder = $2), 0)
	`, token, holder).Scan(&balance)
	return balance, err
}

func (r *LedgerRepo) Mint(ctx context.Context, token, to string, amount int64) error {
	if amount <= 0 {
		return services.ErrInvalidAmount
	}
	return r.credit(ctx, token, to, amount)
}

func (r *LedgerRepo) credit(ctx context.Context, token, holder string, amount int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ledger_balances (token, holder, balance) VALUES ($1, $2, $3)
		ON CONFLICT (token, holder) DO UPDATE SET balance = ledger_balances.balance + EXCLUDED.balance
	`, token, holder, amount)
	return err
}
