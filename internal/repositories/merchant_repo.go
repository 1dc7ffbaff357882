package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shade-pay/backend/internal/models"
)

type MerchantRepo struct {
	db DBTX
}

func (r *MerchantRepo) Create(ctx context.Context, m *models.Merchant) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO merchants (address, active, verified, date_registered)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, m.Address, m.Active, m.Verified, m.DateRegistered).Scan(&m.ID)
}

func (r *MerchantRepo) GetByID(ctx context.Context, id uint64) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.QueryRow(ctx, `
		SELECT id, address, active, verified, date_registered
		FROM merchants WHERE id = $1
	`, id).Scan(&m.ID, &m.Address, &m.Active, &m.Verified, &m.DateRegistered)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepo) GetByAddress(ctx context.Context, address string) (*models.Merchant, error) {
	var m models.Merchant
	err := r.db.QueryRow(ctx, `
		SELECT id, address, active, verified, date_registered
		FROM merchants WHERE address = $1
	`, address).Scan(&m.ID, &m.Address, &m.Active, &m.Verified, &m.DateRegistered)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MerchantRepo) SetVerified(ctx context.Context, id uint64, verified bool) error {
	_, err := r.db.Exec(ctx, `UPDATE merchants SET verified = $1 WHERE id = $2`, verified, id)
	return err
}

func (r *MerchantRepo) List(ctx context.Context, f models.MerchantFilter) ([]models.Merchant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, address, active, verified, date_registered
		FROM merchants ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	merchants := []models.Merchant{}
	for rows.Next() {
		var m models.Merchant
		if err := rows.Scan(&m.ID, &m.Address, &m.Active, &m.Verified, &m.DateRegistered); err != nil {
			return nil, err
		}
		if f.Matches(&m) {
			merchants = append(merchants, m)
		}
	}
	return merchants, rows.Err()
}

func (r *MerchantRepo) SetAccount(ctx context.Context, merchantID uint64, account string) error {
	_, err := r.db.Exec(ctx, `UPDATE merchants SET account_address = $1 WHERE id = $2`, account, merchantID)
	return err
}

func (r *MerchantRepo) GetAccount(ctx context.Context, merchantID uint64) (string, error) {
	var account *string
	err := r.db.QueryRow(ctx, `SELECT account_address FROM merchants WHERE id = $1`, merchantID).Scan(&account)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", nil
	}
	return *account, nil
}
