package usecase

import (
	"context"
	"time"

	"github.com/fleetops/fuelcore/internal/domain"
)

// StockRepository defines data access for the fuel purchase ledger. Methods
// taking a Transaction run inside it; the ForUpdate variants lock the rows
// they return so concurrent recalculation passes serialize.
type StockRepository interface {
	// Create inserts the entry and assigns its identity from the ledger
	// sequence.
	Create(ctx context.Context, tx Transaction, entry *domain.StockEntry) error
	GetByID(ctx context.Context, id int64) (*domain.StockEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id int64) (*domain.StockEntry, error)
	// GetLastForUpdate returns the entry with the greatest identity (the open
	// batch) or ErrStockEntryNotFound when the ledger is empty.
	GetLastForUpdate(ctx context.Context, tx Transaction) (*domain.StockEntry, error)
	// GetPrevious returns the entry with the greatest identity strictly less
	// than id, or ErrStockEntryNotFound when none exists.
	GetPrevious(ctx context.Context, tx Transaction, id int64) (*domain.StockEntry, error)
	// ListFromForUpdate returns entries with identity >= id in ascending
	// order, locked for the duration of the transaction.
	ListFromForUpdate(ctx context.Context, tx Transaction, id int64) ([]*domain.StockEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.StockEntry) error
	Delete(ctx context.Context, tx Transaction, id int64) error
	List(ctx context.Context) ([]*domain.StockEntry, error)
	ListFrom(ctx context.Context, id int64) ([]*domain.StockEntry, error)
}

// ConsumptionRepository defines data access for consumption events.
type ConsumptionRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.ConsumptionEvent) error
	GetByID(ctx context.Context, id string) (*domain.ConsumptionEvent, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	// ListByAssetBetween returns events for the asset within [from, to]
	// ordered by recording time. A nil tx reads outside any transaction.
	ListByAssetBetween(ctx context.Context, tx Transaction, assetID string, from, to time.Time) ([]*domain.ConsumptionEvent, error)
}

// TripRepository defines read access to trip events for reporting.
type TripRepository interface {
	ListByAssetBetween(ctx context.Context, tx Transaction, assetID string, from, to time.Time) ([]*domain.TripEvent, error)
}

// AssetRepository defines read access to the asset projection.
type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	ListByType(ctx context.Context, tx Transaction, assetType string) ([]*domain.Asset, error)
	ListExcludingTypes(ctx context.Context, tx Transaction, assetTypes []string) ([]*domain.Asset, error)
}

// AssignmentRepository resolves which manager was responsible for an asset
// at a point in time. An empty name means unassigned.
type AssignmentRepository interface {
	ManagerAt(ctx context.Context, tx Transaction, assetID string, at time.Time) (string, error)
}

// Recalculator restores the running-balance invariant after a ledger
// mutation. It must run inside the caller's transaction so the mutation and
// the pass are atomic.
type Recalculator interface {
	RecalculateFrom(ctx context.Context, tx Transaction, id int64) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle. BeginRead opens a
// read-only transaction with snapshot isolation for reporting.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	BeginRead(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs for consumption events.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Cache defines caching operations for derived report rows.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RowSink receives an ordered table of already-computed report rows.
// Rendering (spreadsheet, CSV, terminal) is entirely the sink's concern.
type RowSink interface {
	WriteTable(ctx context.Context, header []string, rows [][]string) error
}
