package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fuelcore/internal/usecase"
)

// AssignmentRepository implements usecase.AssignmentRepository on the
// manager_assignments table.
type AssignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

// ManagerAt resolves the manager responsible for the asset at the given
// instant: the latest assignment not after it. Empty means unassigned.
func (r *AssignmentRepository) ManagerAt(ctx context.Context, tx usecase.Transaction, assetID string, at time.Time) (string, error) {
	query := `
		SELECT manager_name
		FROM manager_assignments
		WHERE asset_id = $1 AND assigned_at <= $2
		ORDER BY assigned_at DESC
		LIMIT 1
	`

	var name string
	err := querier(r.pool, tx).QueryRow(ctx, query, assetID, timeToPgTimestamptz(at)).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}

		return "", err
	}

	return name, nil
}
