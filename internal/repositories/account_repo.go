package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shade-pay/backend/internal/models"
)

type AccountRepo struct {
	db DBTX
}

func (r *AccountRepo) Create(ctx context.Context, a *models.EscrowAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO escrow_accounts (address, owner, manager, merchant_id, restricted, verified, date_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.Address, a.Owner, a.Manager, a.MerchantID, a.Restricted, a.Verified, a.DateCreated)
	return err
}

func (r *AccountRepo) scanOne(row pgx.Row) (*models.EscrowAccount, error) {
	var a models.EscrowAccount
	err := row.Scan(&a.Address, &a.Owner, &a.Manager, &a.MerchantID, &a.Restricted, &a.Verified, &a.DateCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByAddress(ctx context.Context, address string) (*models.EscrowAccount, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT address, owner, manager, merchant_id, restricted, verified, date_created
		FROM escrow_accounts WHERE address = $1
	`, address))
}

func (r *AccountRepo) GetByMerchantID(ctx context.Context, merchantID uint64) (*models.EscrowAccount, error) {
	return r.scanOne(r.db.QueryRow(ctx, `
		SELECT address, owner, manager, merchant_id, restricted, verified, date_created
		FROM escrow_accounts WHERE merchant_id = $1
	`, merchantID))
}

func (r *AccountRepo) SetRestricted(ctx context.Context, address string, restricted bool) error {
	_, err := r.db.Exec(ctx, `UPDATE escrow_accounts SET restricted = $1 WHERE address = $2`, restricted, address)
	return err
}

func (r *AccountRepo) AddToken(ctx context.Context, address, token string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO escrow_account_tokens (account_address, token) VALUES ($1, $2)
		ON CONFLICT (account_address, token) DO NOTHING
	`, address, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AccountRepo) HasToken(ctx context.Context, address, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM escrow_account_tokens WHERE account_address = $1 AND token = $2)
	`, address, token).Scan(&exists)
	return exists, err
}

func (r *AccountRepo) ListTokens(ctx context.Context, address string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT token FROM escrow_account_tokens WHERE account_address = $1 ORDER BY token
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
