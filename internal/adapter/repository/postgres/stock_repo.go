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

const stockEntryColumns = `id, challan_no, date, party_name, quantity, rate, amount, stock`

// StockRepository implements usecase.StockRepository on the stock_entries
// table.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

// Create inserts the entry; the ledger sequence assigns its identity.
func (r *StockRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.StockEntry) error {
	query := `
		INSERT INTO stock_entries (challan_no, date, party_name, quantity, rate, amount, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := querier(r.pool, tx).QueryRow(ctx, query,
		entry.ChallanNo,
		timeToPgTimestamptz(entry.Date),
		entry.PartyName,
		decimalToNumeric(entry.Quantity),
		decimalToNumeric(entry.Rate),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.Stock),
	).Scan(&entry.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateChallan
		}

		return err
	}

	return nil
}

// GetByID retrieves a stock entry by identity.
func (r *StockRepository) GetByID(ctx context.Context, id int64) (*domain.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries WHERE id = $1`

	return scanStockEntry(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a stock entry by identity with a FOR UPDATE
// lock.
func (r *StockRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries WHERE id = $1 FOR UPDATE`

	return scanStockEntry(querier(r.pool, tx).QueryRow(ctx, query, id))
}

// GetLastForUpdate retrieves the entry with the greatest identity, locked.
func (r *StockRepository) GetLastForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries ORDER BY id DESC LIMIT 1 FOR UPDATE`

	return scanStockEntry(querier(r.pool, tx).QueryRow(ctx, query))
}

// GetPrevious retrieves the entry with the greatest identity strictly below
// id, locked.
func (r *StockRepository) GetPrevious(ctx context.Context, tx usecase.Transaction, id int64) (*domain.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries WHERE id < $1 ORDER BY id DESC LIMIT 1 FOR UPDATE`

	return scanStockEntry(querier(r.pool, tx).QueryRow(ctx, query, id))
}

// ListFromForUpdate retrieves entries with identity >= id in ascending
// order, locked for the duration of the transaction. Ascending acquisition
// order keeps concurrent recalculation passes deadlock-free.
func (r *StockRepository) ListFromForUpdate(ctx context.Context, tx usecase.Transaction, id int64) ([]*domain.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries WHERE id >= $1 ORDER BY id FOR UPDATE`

	rows, err := querier(r.pool, tx).Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStockEntries(rows)
}

// Update persists every mutable and derived column of the entry.
func (r *StockRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.StockEntry) error {
	query := `
		UPDATE stock_entries
		SET challan_no = $2, date = $3, party_name = $4,
		    quantity = $5, rate = $6, amount = $7, stock = $8
		WHERE id = $1
	`

	tag, err := querier(r.pool, tx).Exec(ctx, query,
		entry.ID,
		entry.ChallanNo,
		timeToPgTimestamptz(entry.Date),
		entry.PartyName,
		decimalToNumeric(entry.Quantity),
		decimalToNumeric(entry.Rate),
		decimalToNumeric(entry.Amount),
		decimalToNumeric(entry.Stock),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateChallan
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrStockEntryNotFound
	}

	return nil
}

// Delete removes the entry. Its identity is never reused.
func (r *StockRepository) Delete(ctx context.Context, tx usecase.Transaction, id int64) error {
	tag, err := querier(r.pool, tx).Exec(ctx, `DELETE FROM stock_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrStockEntryNotFound
	}

	return nil
}

// List retrieves the whole ledger in identity order.
func (r *StockRepository) List(ctx context.Context) ([]*domain.StockEntry, error) {
	return r.ListFrom(ctx, 0)
}

// ListFrom retrieves entries with identity >= id in identity order.
func (r *StockRepository) ListFrom(ctx context.Context, id int64) ([]*domain.StockEntry, error) {
	query := `SELECT ` + stockEntryColumns + ` FROM stock_entries WHERE id >= $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectStockEntries(rows)
}

func scanStockEntry(row pgx.Row) (*domain.StockEntry, error) {
	var (
		entry    domain.StockEntry
		date     pgtype.Timestamptz
		quantity pgtype.Numeric
		rate     pgtype.Numeric
		amount   pgtype.Numeric
		stock    pgtype.Numeric
	)

	err := row.Scan(&entry.ID, &entry.ChallanNo, &date, &entry.PartyName, &quantity, &rate, &amount, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockEntryNotFound
		}

		return nil, err
	}

	entry.Date = date.Time
	entry.Quantity = numericToDecimal(quantity)
	entry.Rate = numericToDecimal(rate)
	entry.Amount = numericToDecimal(amount)
	entry.Stock = numericToDecimal(stock)

	return &entry, nil
}

func collectStockEntries(rows pgx.Rows) ([]*domain.StockEntry, error) {
	entries := make([]*domain.StockEntry, 0)

	for rows.Next() {
		entry, err := scanStockEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
