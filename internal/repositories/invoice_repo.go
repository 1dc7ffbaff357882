package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shade-pay/backend/internal/models"
	"github.com/shade-pay/backend/internal/services"
)

type InvoiceRepo struct {
	db DBTX
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO invoices (description, amount, token, status, merchant_id, date_created, amount_refunded)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, inv.Description, inv.Amount, inv.Token, inv.Status, inv.MerchantID, inv.DateCreated, inv.AmountRefunded).Scan(&inv.ID)
}

func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.db.QueryRow(ctx, `
		SELECT id, description, amount, token, status, merchant_id, payer,
		       date_created, date_paid, amount_refunded
		FROM invoices WHERE id = $1
	`, id).Scan(&inv.ID, &inv.Description, &inv.Amount, &inv.Token, &inv.Status, &inv.MerchantID,
		&inv.Payer, &inv.DateCreated, &inv.DatePaid, &inv.AmountRefunded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	_, err := r.db.Exec(ctx, `
		UPDATE invoices SET status = $1, payer = $2, date_paid = $3, amount_refunded = $4
		WHERE id = $5
	`, inv.Status, inv.Payer, inv.DatePaid, inv.AmountRefunded, inv.ID)
	return err
}

func (r *InvoiceRepo) List(ctx context.Context, q services.InvoiceQuery) ([]models.Invoice, error) {
	query := `
		SELECT id, description, amount, token, status, merchant_id, payer,
		       date_created, date_paid, amount_refunded
		FROM invoices
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if q.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *q.Status)
		argIdx++
	}
	if q.MerchantID != nil {
		where = append(where, fmt.Sprintf("merchant_id = $%d", argIdx))
		args = append(args, *q.MerchantID)
		argIdx++
	}
	if q.MinAmount != nil {
		where = append(where, fmt.Sprintf("amount >= $%d", argIdx))
		args = append(args, *q.MinAmount)
		argIdx++
	}
	if q.MaxAmount != nil {
		where = append(where, fmt.Sprintf("amount <= $%d", argIdx))
		args = append(args, *q.MaxAmount)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.Invoice{}
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.Description, &inv.Amount, &inv.Token, &inv.Status, &inv.MerchantID,
			&inv.Payer, &inv.DateCreated, &inv.DatePaid, &inv.AmountRefunded); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
