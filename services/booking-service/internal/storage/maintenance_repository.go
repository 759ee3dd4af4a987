package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
)

const (
	MaintenanceCompleted = "completed"
	MaintenanceFailed    = "failed"
)

type MaintenanceRepository struct {
	pool *db.Pool
}

func NewMaintenanceRepository(pool *db.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

// LastCompleted returns when task last completed; ok=false when it never did.
func (r *MaintenanceRepository) LastCompleted(ctx context.Context, task string) (time.Time, bool, error) {
	var ranAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT ran_at
		FROM maintenance_log
		WHERE task = $1 AND status = $2
		ORDER BY ran_at DESC
		LIMIT 1
	`, task, MaintenanceCompleted).Scan(&ranAt)
	if err != nil {
		if IsNotFound(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ranAt, true, nil
}

// Touch runs a light query against real tables so hosted databases register activity.
func (r *MaintenanceRepository) Touch(ctx context.Context) error {
	var n int64
	return r.pool.QueryRow(ctx, `SELECT count(*) FROM shops`).Scan(&n)
}

func (r *MaintenanceRepository) Record(ctx context.Context, task, status, detail string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO maintenance_log (task, status, detail)
		VALUES ($1, $2, $3)
	`, task, status, detail)
	return err
}
