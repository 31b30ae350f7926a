// internal/repository/optout_repository.go
package repository

import (
	"context"
	"database/sql"
)

// OptOutRepository persists the process-wide opt-out set so it survives
// restarts. The in-memory registry stays authoritative during a run.
type OptOutRepository struct {
	DB *sql.DB
}

func (r *OptOutRepository) Add(ctx context.Context, destination string) error {
	query := `
        INSERT INTO opt_outs (destination, created_at)
        VALUES ($1, NOW())
        ON CONFLICT (destination) DO NOTHING
    `
	_, err := r.DB.ExecContext(ctx, query, destination)
	return err
}

func (r *OptOutRepository) Remove(ctx context.Context, destination string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM opt_outs WHERE destination = $1`, destination)
	return err
}

func (r *OptOutRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT destination FROM opt_outs ORDER BY destination`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	destinations := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}
