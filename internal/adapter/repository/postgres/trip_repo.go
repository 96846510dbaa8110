package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/usecase"
)

// TripRepository implements usecase.TripRepository on the trip_events table.
type TripRepository struct {
	pool *pgxpool.Pool
}

// NewTripRepository creates a new TripRepository.
func NewTripRepository(pool *pgxpool.Pool) *TripRepository {
	return &TripRepository{pool: pool}
}

// ListByAssetBetween retrieves an asset's trips within [from, to] in
// chronological order.
func (r *TripRepository) ListByAssetBetween(ctx context.Context, tx usecase.Transaction, assetID string, from, to time.Time) ([]*domain.TripEvent, error) {
	query := `
		SELECT id, asset_id, date, from_location, to_location, material, rate, distance, net_weight, hours, shift
		FROM trip_events
		WHERE asset_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, id
	`

	rows, err := querier(r.pool, tx).Query(ctx, query, assetID, timeToPgTimestamptz(from), timeToPgTimestamptz(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]*domain.TripEvent, 0)
	for rows.Next() {
		var (
			trip      domain.TripEvent
			date      pgtype.Timestamptz
			rate      pgtype.Numeric
			distance  pgtype.Numeric
			netWeight pgtype.Numeric
		)

		err := rows.Scan(&trip.ID, &trip.AssetID, &date, &trip.FromLocation, &trip.ToLocation,
			&trip.Material, &rate, &distance, &netWeight, &trip.Hours, &trip.Shift)
		if err != nil {
			return nil, err
		}

		trip.Date = date.Time
		trip.Rate = numericToDecimal(rate)
		trip.Distance = numericToDecimal(distance)
		trip.NetWeight = numericToDecimal(netWeight)

		trips = append(trips, &trip)
	}

	return trips, rows.Err()
}
