package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shade-pay/backend/internal/models"
)

type SettingsRepo struct {
	db DBTX
}

func (r *SettingsRepo) GetContractInfo(ctx context.Context) (*models.ContractInfo, error) {
	var info models.ContractInfo
	err := r.db.QueryRow(ctx, `SELECT admin, created_at FROM contract_info WHERE id = 1`).
		Scan(&info.Admin, &info.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *SettingsRepo) SetContractInfo(ctx context.Context, info models.ContractInfo) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO contract_info (id, admin, created_at) VALUES (1, $1, $2)
	`, info.Admin, info.Timestamp)
	return err
}

func (r *SettingsRepo) IsPaused(ctx context.Context) (bool, error) {
	var paused bool
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE((SELECT enabled FROM flags WHERE name = 'paused'), false)
	`).Scan(&paused)
	return paused, err
}

func (r *SettingsRepo) SetPaused(ctx context.Context, paused bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO flags (name, enabled) VALUES ('paused', $1)
		ON CONFLICT (name) DO UPDATE SET enabled = EXCLUDED.enabled
	`, paused)
	return err
}

func (r *SettingsRepo) AddAcceptedToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accepted_tokens (token) VALUES ($1)
		ON CONFLICT (token) DO NOTHING
	`, token)
	return err
}

func (r *SettingsRepo) RemoveAcceptedToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accepted_tokens WHERE token = $1`, token)
	return err
}

func (r *SettingsRepo) IsAcceptedToken(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accepted_tokens WHERE token = $1)`, token).
		Scan(&exists)
	return exists, err
}

func (r *SettingsRepo) SetFee(ctx context.Context, token string, feeBPS int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO token_fees (token, fee_bps) VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE SET fee_bps = EXCLUDED.fee_bps
	`, token, feeBPS)
	return err
}

func (r *SettingsRepo) GetFee(ctx context.Context, token string) (int, error) {
	var bps int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE((SELECT fee_bps FROM token_fees WHERE token = $1), 0)
	`, token).Scan(&bps)
	return bps, err
}
