package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/usecase"
)

const assetColumns = `id, name, registration_no, type, rate_per_month, rate_per_shift`

// AssetRepository implements usecase.AssetRepository on the assets table.
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// GetByID retrieves an asset by ID.
func (r *AssetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	return scanAsset(r.pool.QueryRow(ctx, query, id))
}

// ListByType retrieves assets of one class ordered by name.
func (r *AssetRepository) ListByType(ctx context.Context, tx usecase.Transaction, assetType string) ([]*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE type = $1 ORDER BY name, registration_no`

	rows, err := querier(r.pool, tx).Query(ctx, query, assetType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAssets(rows)
}

// ListExcludingTypes retrieves assets outside the given classes ordered by
// name.
func (r *AssetRepository) ListExcludingTypes(ctx context.Context, tx usecase.Transaction, assetTypes []string) ([]*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE type != ALL($1) ORDER BY name, registration_no`

	rows, err := querier(r.pool, tx).Query(ctx, query, assetTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAssets(rows)
}

func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var (
		asset        domain.Asset
		ratePerMonth pgtype.Numeric
		ratePerShift pgtype.Numeric
	)

	err := row.Scan(&asset.ID, &asset.Name, &asset.RegistrationNo, &asset.Type, &ratePerMonth, &ratePerShift)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}

		return nil, err
	}

	asset.RatePerMonth = numericToDecimal(ratePerMonth)
	asset.RatePerShift = numericToDecimal(ratePerShift)

	return &asset, nil
}

func collectAssets(rows pgx.Rows) ([]*domain.Asset, error) {
	assets := make([]*domain.Asset, 0)

	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}
