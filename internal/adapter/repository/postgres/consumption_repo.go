package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/usecase"
)

const consumptionColumns = `id, asset_id, quantity, rate, previous_reading, reading, site, manager, recorded_at`

// ConsumptionRepository implements usecase.ConsumptionRepository on the
// consumption_events table.
type ConsumptionRepository struct {
	pool *pgxpool.Pool
}

// NewConsumptionRepository creates a new ConsumptionRepository.
func NewConsumptionRepository(pool *pgxpool.Pool) *ConsumptionRepository {
	return &ConsumptionRepository{pool: pool}
}

// Create inserts a consumption event.
func (r *ConsumptionRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.ConsumptionEvent) error {
	query := `
		INSERT INTO consumption_events (id, asset_id, quantity, rate, previous_reading, reading, site, manager, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := querier(r.pool, tx).Exec(ctx, query,
		event.ID,
		event.AssetID,
		decimalToNumeric(event.Quantity),
		decimalToNumeric(event.Rate),
		decimalToNumeric(event.PreviousReading),
		decimalToNumeric(event.Reading),
		event.Site,
		event.Manager,
		timeToPgTimestamptz(event.RecordedAt),
	)

	return err
}

// GetByID retrieves a consumption event by ID.
func (r *ConsumptionRepository) GetByID(ctx context.Context, id string) (*domain.ConsumptionEvent, error) {
	query := `SELECT ` + consumptionColumns + ` FROM consumption_events WHERE id = $1`

	return scanConsumptionEvent(r.pool.QueryRow(ctx, query, id))
}

// Delete removes a consumption event.
func (r *ConsumptionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := querier(r.pool, tx).Exec(ctx, `DELETE FROM consumption_events WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrConsumptionNotFound
	}

	return nil
}

// ListByAssetBetween retrieves an asset's events within [from, to] in
// recording order.
func (r *ConsumptionRepository) ListByAssetBetween(ctx context.Context, tx usecase.Transaction, assetID string, from, to time.Time) ([]*domain.ConsumptionEvent, error) {
	query := `
		SELECT ` + consumptionColumns + `
		FROM consumption_events
		WHERE asset_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at, id
	`

	rows, err := querier(r.pool, tx).Query(ctx, query, assetID, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.ConsumptionEvent, 0)
	for rows.Next() {
		event, err := scanConsumptionEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func scanConsumptionEvent(row pgx.Row) (*domain.ConsumptionEvent, error) {
	var (
		event      domain.ConsumptionEvent
		quantity   pgtype.Numeric
		rate       pgtype.Numeric
		prev       pgtype.Numeric
		reading    pgtype.Numeric
		recordedAt pgtype.Timestamptz
	)

	err := row.Scan(&event.ID, &event.AssetID, &quantity, &rate, &prev, &reading, &event.Site, &event.Manager, &recordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConsumptionNotFound
		}

		return nil, err
	}

	event.Quantity = numericToDecimal(quantity)
	event.Rate = numericToDecimal(rate)
	event.PreviousReading = numericToDecimal(prev)
	event.Reading = numericToDecimal(reading)
	event.RecordedAt = recordedAt.Time

	return &event, nil
}
