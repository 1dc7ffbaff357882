package repositories

import "context"

type RoleRepo struct {
	db DBTX
}

func (r *RoleRepo) Grant(ctx context.Context, user, role string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO roles (user_address, role) VALUES ($1, $2)
		ON CONFLICT (user_address, role) DO NOTHING
	`, user, role)
	return err
}

func (r *RoleRepo) Revoke(ctx context.Context, user, role string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM roles WHERE user_address = $1 AND role = $2`, user, role)
	return err
}

func (r *RoleRepo) Has(ctx context.Context, user, role string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM roles WHERE user_address = $1 AND role = $2)
	`, user, role).Scan(&exists)
	return exists, err
}
